package factory

import (
	"context"
	"time"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

// Dispatcher resolves the active backend on every call, so it can be held
// before the mode is known and stays valid across mode switches.
type Dispatcher struct {
	f *Factory
}

var _ session.Authenticator = (*Dispatcher)(nil)

func (d *Dispatcher) Login(ctx context.Context, creds user.Credentials) (session.Grant, error) {
	return d.f.active().Auth.Login(ctx, creds)
}

func (d *Dispatcher) Logout(ctx context.Context, token string) error {
	return d.f.active().Auth.Logout(ctx, token)
}

func (d *Dispatcher) Refresh(ctx context.Context, token string) (session.Grant, error) {
	return d.f.active().Auth.Refresh(ctx, token)
}

func (d *Dispatcher) Validate(ctx context.Context, token string) (user.User, error) {
	return d.f.active().Auth.Validate(ctx, token)
}

func (d *Dispatcher) News() news.Service         { return newsDispatcher{d.f} }
func (d *Dispatcher) Notices() notice.Service    { return noticeDispatcher{d.f} }
func (d *Dispatcher) Calendar() calendar.Service { return eventDispatcher{d.f} }
func (d *Dispatcher) Users() user.Service        { return userDispatcher{d.f} }

type newsDispatcher struct{ f *Factory }

func (d newsDispatcher) GetNews(ctx context.Context, filter news.QueryFilter, pr core.PageRequest) (core.Page[news.News], error) {
	return d.f.active().News.GetNews(ctx, filter, pr)
}

func (d newsDispatcher) GetNewsByID(ctx context.Context, id string) (news.News, error) {
	return d.f.active().News.GetNewsByID(ctx, id)
}

func (d newsDispatcher) GetLatestNews(ctx context.Context, limit int) ([]news.News, error) {
	return d.f.active().News.GetLatestNews(ctx, limit)
}

func (d newsDispatcher) CreateNews(ctx context.Context, nn news.NewNews) (news.News, error) {
	return d.f.active().News.CreateNews(ctx, nn)
}

func (d newsDispatcher) UpdateNews(ctx context.Context, id string, un news.UpdateNews) (news.News, error) {
	return d.f.active().News.UpdateNews(ctx, id, un)
}

func (d newsDispatcher) DeleteNews(ctx context.Context, id string) error {
	return d.f.active().News.DeleteNews(ctx, id)
}

type noticeDispatcher struct{ f *Factory }

func (d noticeDispatcher) GetNotices(ctx context.Context, filter notice.QueryFilter, pr core.PageRequest) (core.Page[notice.Notice], error) {
	return d.f.active().Notices.GetNotices(ctx, filter, pr)
}

func (d noticeDispatcher) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	return d.f.active().Notices.GetNoticeByID(ctx, id)
}

func (d noticeDispatcher) CreateNotice(ctx context.Context, nn notice.NewNotice) (notice.Notice, error) {
	return d.f.active().Notices.CreateNotice(ctx, nn)
}

func (d noticeDispatcher) UpdateNotice(ctx context.Context, id string, un notice.UpdateNotice) (notice.Notice, error) {
	return d.f.active().Notices.UpdateNotice(ctx, id, un)
}

func (d noticeDispatcher) DeleteNotice(ctx context.Context, id string) error {
	return d.f.active().Notices.DeleteNotice(ctx, id)
}

func (d noticeDispatcher) MarkAsRead(ctx context.Context, id, userID string) (notice.Notice, error) {
	return d.f.active().Notices.MarkAsRead(ctx, id, userID)
}

func (d noticeDispatcher) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return d.f.active().Notices.GetUnreadCount(ctx, userID)
}

type eventDispatcher struct{ f *Factory }

func (d eventDispatcher) GetEvents(ctx context.Context, filter calendar.QueryFilter, pr core.PageRequest) (core.Page[calendar.Event], error) {
	return d.f.active().Calendar.GetEvents(ctx, filter, pr)
}

func (d eventDispatcher) GetEventByID(ctx context.Context, id string) (calendar.Event, error) {
	return d.f.active().Calendar.GetEventByID(ctx, id)
}

func (d eventDispatcher) GetEventsByMonth(ctx context.Context, year int, month time.Month) ([]calendar.Event, error) {
	return d.f.active().Calendar.GetEventsByMonth(ctx, year, month)
}

func (d eventDispatcher) GetUpcomingEvents(ctx context.Context, limit int) ([]calendar.Event, error) {
	return d.f.active().Calendar.GetUpcomingEvents(ctx, limit)
}

func (d eventDispatcher) CreateEvent(ctx context.Context, ne calendar.NewEvent) (calendar.Event, error) {
	return d.f.active().Calendar.CreateEvent(ctx, ne)
}

func (d eventDispatcher) UpdateEvent(ctx context.Context, id string, ue calendar.UpdateEvent) (calendar.Event, error) {
	return d.f.active().Calendar.UpdateEvent(ctx, id, ue)
}

func (d eventDispatcher) DeleteEvent(ctx context.Context, id string) error {
	return d.f.active().Calendar.DeleteEvent(ctx, id)
}

type userDispatcher struct{ f *Factory }

func (d userDispatcher) GetUsers(ctx context.Context, filter user.QueryFilter, pr core.PageRequest) (core.Page[user.User], error) {
	return d.f.active().Users.GetUsers(ctx, filter, pr)
}

func (d userDispatcher) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return d.f.active().Users.GetUserByID(ctx, id)
}

func (d userDispatcher) GetUsersByRole(ctx context.Context, role string) ([]user.User, error) {
	return d.f.active().Users.GetUsersByRole(ctx, role)
}

func (d userDispatcher) CreateUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	return d.f.active().Users.CreateUser(ctx, nu)
}

func (d userDispatcher) UpdateUser(ctx context.Context, id string, uu user.UpdateUser) (user.User, error) {
	return d.f.active().Users.UpdateUser(ctx, id, uu)
}

func (d userDispatcher) ToggleUserStatus(ctx context.Context, id string) (user.User, error) {
	return d.f.active().Users.ToggleUserStatus(ctx, id)
}

func (d userDispatcher) DeleteUser(ctx context.Context, id string) error {
	return d.f.active().Users.DeleteUser(ctx, id)
}
