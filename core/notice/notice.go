package notice

import (
	"context"
	"net/url"
	"time"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const Resource = "notice"

// Priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var priorityRanks = map[string]int{PriorityLow: 1, PriorityNormal: 2, PriorityHigh: 3, PriorityUrgent: 4}

type Notice struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Priority   string     `json:"priority"`
	Author     user.Ref   `json:"author"`
	Recipients []user.Ref `json:"recipients"` // empty: everyone
	ReadBy     []string   `json:"readBy"`
	ExpiresAt  time.Time  `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (n Notice) GetID() string { return n.ID }

// IsFor reports whether userID is a recipient of n.
func (n Notice) IsFor(userID string) bool {
	if len(n.Recipients) == 0 {
		return true
	}
	for _, r := range n.Recipients {
		if r.ID == userID {
			return true
		}
	}
	return false
}

func (n Notice) IsReadBy(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

func (n Notice) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt)
}

type NewNotice struct {
	Title      string     `json:"title" validate:"notblank,max=200"`
	Content    string     `json:"content" validate:"notblank"`
	Priority   string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Author     user.Ref   `json:"author"`
	Recipients []user.Ref `json:"recipients,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt,omitempty"`
}

type UpdateNotice struct {
	Title      *string     `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Content    *string     `json:"content,omitempty" validate:"omitempty,notblank"`
	Priority   *string     `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Recipients *[]user.Ref `json:"recipients,omitempty"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
}

func (un UpdateNotice) Apply(n *Notice) {
	if un.Title != nil {
		n.Title = core.CleanString(*un.Title)
	}
	if un.Content != nil {
		n.Content = *un.Content
	}
	if un.Priority != nil {
		n.Priority = *un.Priority
	}
	if un.Recipients != nil {
		n.Recipients = *un.Recipients
	}
	if un.ExpiresAt != nil {
		n.ExpiresAt = *un.ExpiresAt
	}
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Priority    string    `query:"priority"`
	AuthorID    string    `query:"authorId"`
	RecipientID string    `query:"recipientId"`
	UnreadFor   string    `query:"unreadFor"` // user id
	From        time.Time `query:"from"`
	To          time.Time `query:"to"`
}

// Match applies AND on the set fields. From/To bound CreatedAt inclusively.
func (qf QueryFilter) Match(n Notice) bool {
	if qf.Search != "" && !core.ContainsFold(n.Title, qf.Search) && !core.ContainsFold(n.Content, qf.Search) {
		return false
	}
	if qf.Priority != "" && n.Priority != qf.Priority {
		return false
	}
	if qf.AuthorID != "" && n.Author.ID != qf.AuthorID {
		return false
	}
	if qf.RecipientID != "" && !n.IsFor(qf.RecipientID) {
		return false
	}
	if qf.UnreadFor != "" && (!n.IsFor(qf.UnreadFor) || n.IsReadBy(qf.UnreadFor)) {
		return false
	}
	return core.InRange(n.CreatedAt, qf.From, qf.To)
}

func (qf QueryFilter) Encode(q url.Values) {
	core.SetString(q, "search", qf.Search)
	core.SetString(q, "priority", qf.Priority)
	core.SetString(q, "authorId", qf.AuthorID)
	core.SetString(q, "recipientId", qf.RecipientID)
	core.SetString(q, "unreadFor", qf.UnreadFor)
	core.SetTime(q, "from", qf.From)
	core.SetTime(q, "to", qf.To)
}

func ParseQueryFilter(q url.Values) (QueryFilter, error) {
	qf := QueryFilter{
		Search:      core.CleanString(q.Get("search")),
		Priority:    q.Get("priority"),
		AuthorID:    q.Get("authorId"),
		RecipientID: q.Get("recipientId"),
		UnreadFor:   q.Get("unreadFor"),
	}
	var err error
	if qf.From, err = core.QueryTime(q, "from"); err != nil {
		return qf, err
	}
	qf.To, err = core.QueryTime(q, "to")
	return qf, err
}

var Comparators = map[string]core.Comparator[Notice]{
	"title":     func(a, b Notice) int { return core.CompareFold(a.Title, b.Title) },
	"priority":  func(a, b Notice) int { return priorityRanks[a.Priority] - priorityRanks[b.Priority] },
	"author":    func(a, b Notice) int { return core.CompareFold(a.Author.Name, b.Author.Name) },
	"expiresAt": func(a, b Notice) int { return core.CompareTime(a.ExpiresAt, b.ExpiresAt) },
	"createdAt": func(a, b Notice) int { return core.CompareTime(a.CreatedAt, b.CreatedAt) },
	"updatedAt": func(a, b Notice) int { return core.CompareTime(a.UpdatedAt, b.UpdatedAt) },
}

const DefaultSortField = "createdAt"

type Service interface {
	GetNotices(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Notice], error)
	GetNoticeByID(ctx context.Context, id string) (Notice, error)
	CreateNotice(ctx context.Context, nn NewNotice) (Notice, error)
	UpdateNotice(ctx context.Context, id string, un UpdateNotice) (Notice, error)
	DeleteNotice(ctx context.Context, id string) error
	MarkAsRead(ctx context.Context, id, userID string) (Notice, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
}
