package restsvc

import (
	"context"
	"net/url"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

const noticesPath = "/notices"

type NoticeService struct {
	client *httpclient.Client
}

var _ notice.Service = (*NoticeService)(nil)

func (s *NoticeService) GetNotices(ctx context.Context, filter notice.QueryFilter, pr core.PageRequest) (core.Page[notice.Notice], error) {
	return list[notice.Notice](ctx, s.client, noticesPath, filter, pr)
}

func (s *NoticeService) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	env, err := httpclient.Get[notice.Notice](ctx, s.client, path(noticesPath, id), nil)
	return env.Data, translate(err, notice.Resource, id)
}

func (s *NoticeService) CreateNotice(ctx context.Context, nn notice.NewNotice) (notice.Notice, error) {
	env, err := httpclient.Post[notice.Notice](ctx, s.client, noticesPath, nn)
	return env.Data, translate(err, "", "")
}

func (s *NoticeService) UpdateNotice(ctx context.Context, id string, un notice.UpdateNotice) (notice.Notice, error) {
	env, err := httpclient.Put[notice.Notice](ctx, s.client, path(noticesPath, id), un)
	return env.Data, translate(err, notice.Resource, id)
}

func (s *NoticeService) DeleteNotice(ctx context.Context, id string) error {
	return translate(httpclient.Delete(ctx, s.client, path(noticesPath, id)), notice.Resource, id)
}

type markAsRead struct {
	UserID string `json:"userId"`
}

func (s *NoticeService) MarkAsRead(ctx context.Context, id, userID string) (notice.Notice, error) {
	env, err := httpclient.Post[notice.Notice](ctx, s.client, path(noticesPath, id, "read"), markAsRead{UserID: userID})
	return env.Data, translate(err, notice.Resource, id)
}

type unreadCount struct {
	Count int `json:"count"`
}

func (s *NoticeService) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	q := url.Values{"userId": {userID}}
	env, err := httpclient.Get[unreadCount](ctx, s.client, noticesPath+"/unread-count", q)
	return env.Data.Count, translate(err, "", "")
}
