package restsvc

import (
	"context"
	"net/url"
	"strconv"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

const newsPath = "/news"

type NewsService struct {
	client *httpclient.Client
}

var _ news.Service = (*NewsService)(nil)

func (s *NewsService) GetNews(ctx context.Context, filter news.QueryFilter, pr core.PageRequest) (core.Page[news.News], error) {
	return list[news.News](ctx, s.client, newsPath, filter, pr)
}

func (s *NewsService) GetNewsByID(ctx context.Context, id string) (news.News, error) {
	env, err := httpclient.Get[news.News](ctx, s.client, path(newsPath, id), nil)
	return env.Data, translate(err, news.Resource, id)
}

func (s *NewsService) GetLatestNews(ctx context.Context, limit int) ([]news.News, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	env, err := httpclient.Get[[]news.News](ctx, s.client, newsPath+"/latest", q)
	return env.Data, translate(err, "", "")
}

func (s *NewsService) CreateNews(ctx context.Context, nn news.NewNews) (news.News, error) {
	env, err := httpclient.Post[news.News](ctx, s.client, newsPath, nn)
	return env.Data, translate(err, "", "")
}

func (s *NewsService) UpdateNews(ctx context.Context, id string, un news.UpdateNews) (news.News, error) {
	env, err := httpclient.Put[news.News](ctx, s.client, path(newsPath, id), un)
	return env.Data, translate(err, news.Resource, id)
}

func (s *NewsService) DeleteNews(ctx context.Context, id string) error {
	return translate(httpclient.Delete(ctx, s.client, path(newsPath, id)), news.Resource, id)
}
