package news

import (
	"context"
	"net/url"
	"time"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const Resource = "news"

type News struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Published   bool      `json:"published"`
	Author      user.Ref  `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (n News) GetID() string { return n.ID }

type NewNews struct {
	Title     string   `json:"title" validate:"notblank,max=200"`
	Summary   string   `json:"summary,omitempty" validate:"max=500"`
	Content   string   `json:"content" validate:"notblank"`
	Category  string   `json:"category" validate:"notblank"`
	ImageURL  string   `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Published bool     `json:"published"`
	Author    user.Ref `json:"author"`
}

// UpdateNews holds the fields to change; nil fields are left untouched.
type UpdateNews struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Summary   *string `json:"summary,omitempty" validate:"omitempty,max=500"`
	Content   *string `json:"content,omitempty" validate:"omitempty,notblank"`
	Category  *string `json:"category,omitempty" validate:"omitempty,notblank"`
	ImageURL  *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Published *bool   `json:"published,omitempty"`
}

// Apply copies the set fields onto n. Publishing a draft stamps PublishedAt with now.
func (un UpdateNews) Apply(n *News, now time.Time) {
	if un.Title != nil {
		n.Title = core.CleanString(*un.Title)
	}
	if un.Summary != nil {
		n.Summary = core.CleanString(*un.Summary)
	}
	if un.Content != nil {
		n.Content = *un.Content
	}
	if un.Category != nil {
		n.Category = core.CleanString(*un.Category, true /* lower */)
	}
	if un.ImageURL != nil {
		n.ImageURL = *un.ImageURL
	}
	if un.Published != nil {
		if *un.Published && !n.Published {
			n.PublishedAt = now
		}
		n.Published = *un.Published
	}
}

type QueryFilter struct {
	Search    string    `query:"search"`
	Category  string    `query:"category"`
	AuthorID  string    `query:"authorId"`
	Published *bool     `query:"published"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}

// Match applies AND on the set fields. From/To bound PublishedAt inclusively.
func (qf QueryFilter) Match(n News) bool {
	if qf.Search != "" &&
		!core.ContainsFold(n.Title, qf.Search) &&
		!core.ContainsFold(n.Summary, qf.Search) &&
		!core.ContainsFold(n.Content, qf.Search) {
		return false
	}
	if qf.Category != "" && n.Category != qf.Category {
		return false
	}
	if qf.AuthorID != "" && n.Author.ID != qf.AuthorID {
		return false
	}
	if qf.Published != nil && n.Published != *qf.Published {
		return false
	}
	return core.InRange(n.PublishedAt, qf.From, qf.To)
}

func (qf QueryFilter) Encode(q url.Values) {
	core.SetString(q, "search", qf.Search)
	core.SetString(q, "category", qf.Category)
	core.SetString(q, "authorId", qf.AuthorID)
	core.SetBool(q, "published", qf.Published)
	core.SetTime(q, "from", qf.From)
	core.SetTime(q, "to", qf.To)
}

func ParseQueryFilter(q url.Values) (QueryFilter, error) {
	qf := QueryFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		AuthorID: q.Get("authorId"),
	}
	qf.Clean()
	var err error
	if qf.Published, err = core.QueryBool(q, "published"); err != nil {
		return qf, err
	}
	if qf.From, err = core.QueryTime(q, "from"); err != nil {
		return qf, err
	}
	qf.To, err = core.QueryTime(q, "to")
	return qf, err
}

var Comparators = map[string]core.Comparator[News]{
	"title":       func(a, b News) int { return core.CompareFold(a.Title, b.Title) },
	"category":    func(a, b News) int { return core.CompareFold(a.Category, b.Category) },
	"author":      func(a, b News) int { return core.CompareFold(a.Author.Name, b.Author.Name) },
	"publishedAt": func(a, b News) int { return core.CompareTime(a.PublishedAt, b.PublishedAt) },
	"createdAt":   func(a, b News) int { return core.CompareTime(a.CreatedAt, b.CreatedAt) },
	"updatedAt":   func(a, b News) int { return core.CompareTime(a.UpdatedAt, b.UpdatedAt) },
}

const DefaultSortField = "publishedAt"

type Service interface {
	GetNews(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[News], error)
	GetNewsByID(ctx context.Context, id string) (News, error)
	// GetLatestNews returns the most recently published news first.
	GetLatestNews(ctx context.Context, limit int) ([]News, error)
	CreateNews(ctx context.Context, nn NewNews) (News, error)
	UpdateNews(ctx context.Context, id string, un UpdateNews) (News, error)
	DeleteNews(ctx context.Context, id string) error
}
