package mockstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/news"
)

type NewsStore struct {
	coll      *collection[news.News]
	validator *core.Validator
}

var _ news.Service = (*NewsStore)(nil)

var newsSorting = sorting[news.News]{
	comparators:  news.Comparators,
	defaultField: news.DefaultSortField,
	defaultOrder: core.SortDesc,
}

func (s *NewsStore) GetNews(ctx context.Context, filter news.QueryFilter, pr core.PageRequest) (core.Page[news.News], error) {
	filter.Clean()
	return s.coll.page(ctx, filter.Match, pr, newsSorting)
}

func (s *NewsStore) GetNewsByID(ctx context.Context, id string) (news.News, error) {
	return s.coll.get(ctx, id)
}

func (s *NewsStore) GetLatestNews(ctx context.Context, limit int) ([]news.News, error) {
	published := true
	page, err := s.GetNews(ctx, news.QueryFilter{Published: &published}, core.PageRequest{
		Limit:     limit,
		SortBy:    "publishedAt",
		SortOrder: core.SortDesc,
	})
	return page.Data, err
}

func (s *NewsStore) CreateNews(ctx context.Context, nn news.NewNews) (news.News, error) {
	if err := s.validator.Struct(nn); err != nil {
		return news.News{}, err
	}

	now := s.coll.now()
	n := news.News{
		ID:        uuid.New().String(),
		Title:     core.CleanString(nn.Title),
		Summary:   core.CleanString(nn.Summary),
		Content:   nn.Content,
		Category:  core.CleanString(nn.Category, true /* lower */),
		ImageURL:  nn.ImageURL,
		Published: nn.Published,
		Author:    nn.Author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.Published {
		n.PublishedAt = now
	}
	if err := s.coll.insert(ctx, n); err != nil {
		return news.News{}, err
	}
	return n, nil
}

func (s *NewsStore) UpdateNews(ctx context.Context, id string, un news.UpdateNews) (news.News, error) {
	if err := s.validator.Struct(un); err != nil {
		return news.News{}, err
	}
	return s.coll.update(ctx, id, func(n *news.News) error {
		now := touch(s.coll.now(), n.UpdatedAt)
		un.Apply(n, now)
		n.UpdatedAt = now
		return nil
	})
}

func (s *NewsStore) DeleteNews(ctx context.Context, id string) error {
	return s.coll.remove(ctx, id)
}
