package calendar

import (
	"context"
	"net/url"
	"time"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const Resource = "event"

// Event types
const (
	TypeClass    = "class"
	TypeExam     = "exam"
	TypeHoliday  = "holiday"
	TypeMeeting  = "meeting"
	TypeActivity = "activity"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Location    string    `json:"location,omitempty"`
	Course      string    `json:"course,omitempty"`
	AllDay      bool      `json:"allDay"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	CreatedBy   user.Ref  `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (e Event) GetID() string { return e.ID }

type NewEvent struct {
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type" validate:"required,oneof=class exam holiday meeting activity"`
	Location    string    `json:"location,omitempty"`
	Course      string    `json:"course,omitempty"`
	AllDay      bool      `json:"allDay"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	CreatedBy   user.Ref  `json:"createdBy"`
}

type UpdateEvent struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string    `json:"description,omitempty"`
	Type        *string    `json:"type,omitempty" validate:"omitempty,oneof=class exam holiday meeting activity"`
	Location    *string    `json:"location,omitempty"`
	Course      *string    `json:"course,omitempty"`
	AllDay      *bool      `json:"allDay,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// Apply copies the set fields onto e and reports whether the dates are still ordered.
func (ue UpdateEvent) Apply(e *Event) bool {
	if ue.Title != nil {
		e.Title = core.CleanString(*ue.Title)
	}
	if ue.Description != nil {
		e.Description = *ue.Description
	}
	if ue.Type != nil {
		e.Type = *ue.Type
	}
	if ue.Location != nil {
		e.Location = *ue.Location
	}
	if ue.Course != nil {
		e.Course = *ue.Course
	}
	if ue.AllDay != nil {
		e.AllDay = *ue.AllDay
	}
	if ue.StartDate != nil {
		e.StartDate = *ue.StartDate
	}
	if ue.EndDate != nil {
		e.EndDate = *ue.EndDate
	}
	return !e.EndDate.Before(e.StartDate)
}

type QueryFilter struct {
	Search string    `query:"search"`
	Type   string    `query:"type"`
	Course string    `query:"course"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
}

// Match applies AND on the set fields. From/To bound StartDate inclusively.
func (qf QueryFilter) Match(e Event) bool {
	if qf.Search != "" &&
		!core.ContainsFold(e.Title, qf.Search) &&
		!core.ContainsFold(e.Description, qf.Search) &&
		!core.ContainsFold(e.Location, qf.Search) {
		return false
	}
	if qf.Type != "" && e.Type != qf.Type {
		return false
	}
	if qf.Course != "" && e.Course != qf.Course {
		return false
	}
	return core.InRange(e.StartDate, qf.From, qf.To)
}

func (qf QueryFilter) Encode(q url.Values) {
	core.SetString(q, "search", qf.Search)
	core.SetString(q, "type", qf.Type)
	core.SetString(q, "course", qf.Course)
	core.SetTime(q, "from", qf.From)
	core.SetTime(q, "to", qf.To)
}

func ParseQueryFilter(q url.Values) (QueryFilter, error) {
	qf := QueryFilter{
		Search: core.CleanString(q.Get("search")),
		Type:   q.Get("type"),
		Course: q.Get("course"),
	}
	var err error
	if qf.From, err = core.QueryTime(q, "from"); err != nil {
		return qf, err
	}
	qf.To, err = core.QueryTime(q, "to")
	return qf, err
}

// MonthRange returns the inclusive bounds of the given month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

var Comparators = map[string]core.Comparator[Event]{
	"title":     func(a, b Event) int { return core.CompareFold(a.Title, b.Title) },
	"type":      func(a, b Event) int { return core.CompareFold(a.Type, b.Type) },
	"startDate": func(a, b Event) int { return core.CompareTime(a.StartDate, b.StartDate) },
	"endDate":   func(a, b Event) int { return core.CompareTime(a.EndDate, b.EndDate) },
	"createdAt": func(a, b Event) int { return core.CompareTime(a.CreatedAt, b.CreatedAt) },
	"updatedAt": func(a, b Event) int { return core.CompareTime(a.UpdatedAt, b.UpdatedAt) },
}

const DefaultSortField = "startDate"

type Service interface {
	GetEvents(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Event], error)
	GetEventByID(ctx context.Context, id string) (Event, error)
	GetEventsByMonth(ctx context.Context, year int, month time.Month) ([]Event, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]Event, error)
	CreateEvent(ctx context.Context, ne NewEvent) (Event, error)
	UpdateEvent(ctx context.Context, id string, ue UpdateEvent) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
