package mockstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
)

type EventStore struct {
	coll      *collection[calendar.Event]
	validator *core.Validator
}

var _ calendar.Service = (*EventStore)(nil)

var eventSorting = sorting[calendar.Event]{
	comparators:  calendar.Comparators,
	defaultField: calendar.DefaultSortField,
	defaultOrder: core.SortAsc,
}

var errEventDates = core.NewValidationError(nil, core.FieldError{Field: "endDate", Error: "endDate must be after startDate"})

func (s *EventStore) GetEvents(ctx context.Context, filter calendar.QueryFilter, pr core.PageRequest) (core.Page[calendar.Event], error) {
	filter.Search = core.CleanString(filter.Search)
	return s.coll.page(ctx, filter.Match, pr, eventSorting)
}

func (s *EventStore) GetEventByID(ctx context.Context, id string) (calendar.Event, error) {
	return s.coll.get(ctx, id)
}

// GetEventsByMonth returns the events overlapping the month, by start date.
func (s *EventStore) GetEventsByMonth(ctx context.Context, year int, month time.Month) ([]calendar.Event, error) {
	if month < time.January || month > time.December {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "month must be between 1 and 12"})
	}
	from, to := calendar.MonthRange(year, month, time.UTC)
	events, err := s.coll.filter(ctx, func(e calendar.Event) bool {
		return !e.StartDate.After(to) && !e.EndDate.Before(from)
	})
	if err != nil {
		return nil, err
	}
	core.SortBy(events, calendar.Comparators["startDate"], core.SortAsc, calendar.Event.GetID)
	return events, nil
}

// GetUpcomingEvents returns the next events starting from now.
func (s *EventStore) GetUpcomingEvents(ctx context.Context, limit int) ([]calendar.Event, error) {
	page, err := s.GetEvents(ctx, calendar.QueryFilter{From: s.coll.now()}, core.PageRequest{
		Limit:     limit,
		SortBy:    "startDate",
		SortOrder: core.SortAsc,
	})
	return page.Data, err
}

func (s *EventStore) CreateEvent(ctx context.Context, ne calendar.NewEvent) (calendar.Event, error) {
	if err := s.validator.Struct(ne); err != nil {
		return calendar.Event{}, err
	}

	now := s.coll.now()
	e := calendar.Event{
		ID:          uuid.New().String(),
		Title:       core.CleanString(ne.Title),
		Description: ne.Description,
		Type:        ne.Type,
		Location:    core.CleanString(ne.Location),
		Course:      core.CleanString(ne.Course),
		AllDay:      ne.AllDay,
		StartDate:   ne.StartDate.UTC(),
		EndDate:     ne.EndDate.UTC(),
		CreatedBy:   ne.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.coll.insert(ctx, e); err != nil {
		return calendar.Event{}, err
	}
	return e, nil
}

func (s *EventStore) UpdateEvent(ctx context.Context, id string, ue calendar.UpdateEvent) (calendar.Event, error) {
	if err := s.validator.Struct(ue); err != nil {
		return calendar.Event{}, err
	}
	return s.coll.update(ctx, id, func(e *calendar.Event) error {
		if !ue.Apply(e) {
			return errEventDates
		}
		e.StartDate, e.EndDate = e.StartDate.UTC(), e.EndDate.UTC()
		e.UpdatedAt = touch(s.coll.now(), e.UpdatedAt)
		return nil
	})
}

func (s *EventStore) DeleteEvent(ctx context.Context, id string) error {
	return s.coll.remove(ctx, id)
}
