package mockstore

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/tests"
)

var ctx = context.Background()

func setup(t *testing.T) (*Stores, core.Storage, *core.Config) {
	conf := testutil.NewConfig(t)
	storage := testutil.NewStorage()
	return New(storage, conf, testutil.NewValidator()), storage, conf
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestSeeding(t *testing.T) {
	stores, storage, conf := setup(t)
	key := conf.Storage.Namespace + ".mock.news"

	_, ok, _ := storage.Get(key)
	assert.False(t, ok)

	page, err := stores.News.GetNews(ctx, news.QueryFilter{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)

	_, ok, _ = storage.Get(key)
	assert.True(t, ok, "seeded on first access")

	// another instance sharing the storage sees the same records
	created, err := stores.News.CreateNews(ctx, news.NewNews{Title: "t", Content: "c", Category: "misc"})
	require.NoError(t, err)
	other := New(storage, conf, testutil.NewValidator())
	got, err := other.News.GetNewsByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	require.NoError(t, stores.Reset())
	_, err = stores.News.GetNewsByID(ctx, created.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestNews_RoundTrip(t *testing.T) {
	stores, _, _ := setup(t)
	author := user.Ref{ID: "u-1", Name: "Admin"}

	nn := news.NewNews{
		Title:     "  Journée portes ouvertes ",
		Summary:   "Visite",
		Content:   "Venez nombreux.",
		Category:  "Campus",
		Published: true,
		Author:    author,
	}
	created, err := stores.News.CreateNews(ctx, nn)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, created.CreatedAt, created.PublishedAt)

	got, err := stores.News.GetNewsByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, news.News{
		ID:          created.ID,
		Title:       "Journée portes ouvertes",
		Summary:     "Visite",
		Content:     "Venez nombreux.",
		Category:    "campus",
		Published:   true,
		Author:      author,
		PublishedAt: created.PublishedAt,
		CreatedAt:   created.CreatedAt,
		UpdatedAt:   created.UpdatedAt,
	}, got)

	updated, err := stores.News.UpdateNews(ctx, created.ID, news.UpdateNews{Title: strPtr("Portes ouvertes")})
	require.NoError(t, err)
	got, err = stores.News.GetNewsByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt))

	want := created
	want.Title = "Portes ouvertes"
	want.UpdatedAt = got.UpdatedAt
	assert.Equal(t, want, got, "only the title changed")

	_, err = stores.News.CreateNews(ctx, news.NewNews{Title: " ", Content: "x", Category: "x"})
	assert.True(t, core.IsValidation(err))

	require.NoError(t, stores.News.DeleteNews(ctx, created.ID))
	_, err = stores.News.GetNewsByID(ctx, created.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(stores.News.DeleteNews(ctx, created.ID)))
	_, err = stores.News.UpdateNews(ctx, "missing", news.UpdateNews{})
	assert.True(t, core.IsNotFound(err))
}

func TestNews_Query(t *testing.T) {
	stores, _, _ := setup(t)

	t.Run("search is case insensitive", func(t *testing.T) {
		page, err := stores.News.GetNews(ctx, news.QueryFilter{Search: "FOOTBALL"}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "news-3", page.Data[0].ID)
	})

	t.Run("published date range is inclusive", func(t *testing.T) {
		target, err := stores.News.GetNewsByID(ctx, "news-2")
		require.NoError(t, err)
		page, err := stores.News.GetNews(ctx, news.QueryFilter{From: target.PublishedAt, To: target.PublishedAt}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "news-2", page.Data[0].ID)
	})

	t.Run("flags and ids", func(t *testing.T) {
		page, err := stores.News.GetNews(ctx, news.QueryFilter{Published: boolPtr(false)}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "news-4", page.Data[0].ID)

		page, err = stores.News.GetNews(ctx, news.QueryFilter{AuthorID: seedTeacher.ID, Category: "sports"}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
	})

	t.Run("category ignores case and padding", func(t *testing.T) {
		page, err := stores.News.GetNews(ctx, news.QueryFilter{Category: " Sports "}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "news-3", page.Data[0].ID)
	})

	t.Run("latest", func(t *testing.T) {
		latest, err := stores.News.GetLatestNews(ctx, 2)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, "news-3", latest[0].ID)
		assert.Equal(t, "news-2", latest[1].ID)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		_, err := stores.News.GetNews(ctx, news.QueryFilter{}, core.PageRequest{SortBy: "password"})
		assert.True(t, core.IsValidation(err))
	})
}

func TestPagination(t *testing.T) {
	stores, _, _ := setup(t)
	for i := 0; i < 7; i++ {
		_, err := stores.News.CreateNews(ctx, news.NewNews{Title: "Same title", Content: "c", Category: "misc"})
		require.NoError(t, err)
	}
	pr := func(page, limit int) core.PageRequest {
		return core.PageRequest{Page: page, Limit: limit, SortBy: "title", SortOrder: core.SortAsc}
	}

	all, err := stores.News.GetNews(ctx, news.QueryFilter{}, pr(1, 100))
	require.NoError(t, err)
	require.Equal(t, 11, all.Total)

	const limit = 4
	p1, err := stores.News.GetNews(ctx, news.QueryFilter{}, pr(1, limit))
	require.NoError(t, err)
	p2, err := stores.News.GetNews(ctx, news.QueryFilter{}, pr(2, limit))
	require.NoError(t, err)
	p3, err := stores.News.GetNews(ctx, news.QueryFilter{}, pr(3, limit))
	require.NoError(t, err)

	ids := func(items []news.News) []string {
		var out []string
		for _, n := range items {
			out = append(out, n.ID)
		}
		return out
	}
	union := append(ids(p1.Data), ids(p2.Data)...)
	assert.Equal(t, ids(all.Data[:2*limit]), union, "disjoint pages in sorted order")

	assert.Equal(t, core.Page[news.News]{Data: p1.Data, Total: 11, Page: 1, Limit: limit, HasNext: true, HasPrev: false}, p1)
	assert.True(t, p2.HasNext)
	assert.True(t, p2.HasPrev)
	assert.Len(t, p3.Data, 3)
	assert.False(t, p3.HasNext)
	assert.True(t, p3.HasPrev)

	// ties on title are ordered by id
	var same []string
	for _, n := range all.Data {
		if n.Title == "Same title" {
			same = append(same, n.ID)
		}
	}
	for i := 1; i < len(same); i++ {
		assert.Less(t, same[i-1], same[i])
	}

	empty, err := stores.News.GetNews(ctx, news.QueryFilter{}, pr(9, limit))
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.False(t, empty.HasNext)
	assert.True(t, empty.HasPrev)

	far, err := stores.News.GetNews(ctx, news.QueryFilter{}, pr(math.MaxInt/50, 100))
	require.NoError(t, err)
	assert.Empty(t, far.Data)
	assert.Equal(t, 11, far.Total)
	assert.False(t, far.HasNext)

	defaults, err := stores.News.GetNews(ctx, news.QueryFilter{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, testutil.NewConfig(t).Mock.PageSize, defaults.Limit)
}

func TestNotices(t *testing.T) {
	stores, _, _ := setup(t)
	reader := seedUser.ID

	count, err := stores.Notices.GetUnreadCount(ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	created, err := stores.Notices.CreateNotice(ctx, notice.NewNotice{
		Title:      "Bibliothèque fermée",
		Content:    "Fermeture exceptionnelle.",
		Author:     seedAdmin,
		Recipients: []user.Ref{seedTeacher},
	})
	require.NoError(t, err)
	assert.Equal(t, notice.PriorityNormal, created.Priority)
	got, err := stores.Notices.GetNoticeByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	count, err = stores.Notices.GetUnreadCount(ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "not a recipient")

	read, err := stores.Notices.MarkAsRead(ctx, "notice-1", reader)
	require.NoError(t, err)
	assert.Equal(t, []string{reader}, read.ReadBy)
	again, err := stores.Notices.MarkAsRead(ctx, "notice-1", reader)
	require.NoError(t, err)
	assert.Equal(t, read, again, "idempotent")

	count, err = stores.Notices.GetUnreadCount(ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	page, err := stores.Notices.GetNotices(ctx, notice.QueryFilter{UnreadFor: reader}, core.PageRequest{SortBy: "priority", SortOrder: core.SortDesc})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "notice-3", page.Data[0].ID, "urgent first")

	updated, err := stores.Notices.UpdateNotice(ctx, created.ID, notice.UpdateNotice{Priority: strPtr(notice.PriorityUrgent)})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	_, err = stores.Notices.UpdateNotice(ctx, created.ID, notice.UpdateNotice{Priority: strPtr("whatever")})
	assert.True(t, core.IsValidation(err))

	_, err = stores.Notices.MarkAsRead(ctx, "missing", reader)
	assert.True(t, core.IsNotFound(err))
}

func TestCalendar(t *testing.T) {
	stores, _, _ := setup(t)
	start := time.Date(2021, time.February, 27, 9, 0, 0, 0, time.UTC)

	ne := calendar.NewEvent{
		Title:     "Examen de physique",
		Type:      calendar.TypeExam,
		Course:    "L1",
		StartDate: start,
		EndDate:   start.Add(3 * 24 * time.Hour), // ends in March
		CreatedBy: seedAdmin,
	}
	created, err := stores.Calendar.CreateEvent(ctx, ne)
	require.NoError(t, err)
	got, err := stores.Calendar.GetEventByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	for _, month := range []time.Month{time.February, time.March} {
		events, err := stores.Calendar.GetEventsByMonth(ctx, 2021, month)
		require.NoError(t, err)
		require.Len(t, events, 1, month.String())
		assert.Equal(t, created.ID, events[0].ID)
	}
	events, err := stores.Calendar.GetEventsByMonth(ctx, 2021, time.April)
	require.NoError(t, err)
	assert.Empty(t, events)
	_, err = stores.Calendar.GetEventsByMonth(ctx, 2021, 13)
	assert.True(t, core.IsValidation(err))

	upcoming, err := stores.Calendar.GetUpcomingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 3)
	assert.Equal(t, []string{"event-1", "event-2", "event-4"}, []string{upcoming[0].ID, upcoming[1].ID, upcoming[2].ID})

	_, err = stores.Calendar.CreateEvent(ctx, calendar.NewEvent{Title: "x", Type: calendar.TypeClass, StartDate: start, EndDate: start.Add(-time.Hour)})
	assert.True(t, core.IsValidation(err))

	before := start.Add(-time.Hour)
	_, err = stores.Calendar.UpdateEvent(ctx, created.ID, calendar.UpdateEvent{EndDate: &before})
	assert.True(t, core.IsValidation(err))

	title := "Examen de chimie"
	updated, err := stores.Calendar.UpdateEvent(ctx, created.ID, calendar.UpdateEvent{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, created.EndDate, updated.EndDate)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	page, err := stores.Calendar.GetEvents(ctx, calendar.QueryFilter{Type: calendar.TypeExam, Course: "L1"}, core.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)
}

func TestUsers(t *testing.T) {
	stores, _, _ := setup(t)

	nu := user.NewUser{
		Name:            "Neema Zawadi",
		Username:        "NZawadi",
		Email:           "neema@masomo.test",
		Password:        "Kivu#2021lake",
		PasswordConfirm: "Kivu#2021lake",
		Role:            user.RoleUser,
		Course:          "L3",
	}
	created, err := stores.Users.CreateUser(ctx, nu)
	require.NoError(t, err)
	assert.Equal(t, "nzawadi", created.Username)
	assert.True(t, created.IsActive)
	got, err := stores.Users.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	t.Run("uniqueness", func(t *testing.T) {
		dup := nu
		dup.Email = "other@masomo.test"
		_, err := stores.Users.CreateUser(ctx, dup)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, map[string]string{"username": "username already taken"}, vErr.FieldMap())

		_, err = stores.Users.UpdateUser(ctx, created.ID, user.UpdateUser{Email: strPtr("admin@masomo.test")})
		assert.True(t, core.IsValidation(err))
	})

	t.Run("password policy", func(t *testing.T) {
		weak := nu
		weak.Username, weak.Email = "weak", "weak@masomo.test"
		weak.Password, weak.PasswordConfirm = "12345678", "12345678"
		_, err := stores.Users.CreateUser(ctx, weak)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("by role", func(t *testing.T) {
		admins, err := stores.Users.GetUsersByRole(ctx, user.RoleAdmin)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "admin", admins[0].Username)
	})

	t.Run("filter", func(t *testing.T) {
		page, err := stores.Users.GetUsers(ctx, user.QueryFilter{Search: "MASOMO.test", IsActive: boolPtr(false)}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "fmbuyi", page.Data[0].Username)
	})

	t.Run("toggle & update", func(t *testing.T) {
		toggled, err := stores.Users.ToggleUserStatus(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, toggled.IsActive)
		assert.True(t, toggled.UpdatedAt.After(created.UpdatedAt))

		updated, err := stores.Users.UpdateUser(ctx, created.ID, user.UpdateUser{Course: strPtr("M1")})
		require.NoError(t, err)
		assert.Equal(t, "M1", updated.Course)
		assert.False(t, updated.IsActive)
		assert.True(t, updated.UpdatedAt.After(toggled.UpdatedAt))
	})

	require.NoError(t, stores.Users.DeleteUser(ctx, created.ID))
	_, err = stores.Users.GetUserByID(ctx, created.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestAuth(t *testing.T) {
	stores, _, _ := setup(t)

	for _, cred := range Credentials {
		t.Run(cred.Username, func(t *testing.T) {
			grant, err := stores.Auth.Login(ctx, user.Credentials{Username: cred.Username, Password: cred.Password})
			require.NoError(t, err)
			assert.Equal(t, cred.Role, grant.User.Role)
			assert.NotEmpty(t, grant.Token)
			assert.True(t, grant.ExpiresAt.After(time.Now()))
			assert.False(t, grant.User.LastLogin.IsZero())

			usr, err := stores.Auth.Validate(ctx, grant.Token)
			require.NoError(t, err)
			assert.Equal(t, grant.User.ID, usr.ID)
		})
	}

	t.Run("wrong password", func(t *testing.T) {
		_, err := stores.Auth.Login(ctx, user.Credentials{Username: "admin", Password: "user123"})
		assert.Equal(t, core.ErrInvalidCredentials, err)
		assert.False(t, core.IsNetwork(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := stores.Auth.Login(ctx, user.Credentials{Username: "nobody", Password: "admin123"})
		assert.Equal(t, core.ErrInvalidCredentials, err)
	})

	t.Run("login by email", func(t *testing.T) {
		_, err := stores.Auth.Login(ctx, user.Credentials{Username: "ADMIN@masomo.test", Password: "admin123"})
		assert.NoError(t, err)
	})

	t.Run("deactivated", func(t *testing.T) {
		_, err := stores.Users.ToggleUserStatus(ctx, seedUser.ID)
		require.NoError(t, err)
		defer func() { _, _ = stores.Users.ToggleUserStatus(ctx, seedUser.ID) }()
		_, err = stores.Auth.Login(ctx, user.Credentials{Username: "user", Password: "user123"})
		assert.Equal(t, core.ErrAccountDeactivated, err)
	})

	t.Run("refresh & logout revoke the token", func(t *testing.T) {
		grant, err := stores.Auth.Login(ctx, user.Credentials{Username: "user", Password: "user123"})
		require.NoError(t, err)

		refreshed, err := stores.Auth.Refresh(ctx, grant.Token)
		require.NoError(t, err)
		assert.NotEqual(t, grant.Token, refreshed.Token)
		_, err = stores.Auth.Validate(ctx, grant.Token)
		assert.True(t, errors.Is(err, core.ErrUnauthenticated))

		require.NoError(t, stores.Auth.Logout(ctx, refreshed.Token))
		_, err = stores.Auth.Refresh(ctx, refreshed.Token)
		assert.True(t, errors.Is(err, core.ErrUnauthenticated))
	})
}

func TestLatency(t *testing.T) {
	stores, _, _ := setup(t)
	stores.News.coll.latency = 30 * time.Millisecond

	start := time.Now()
	_, err := stores.News.GetNewsByID(ctx, "news-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(30*time.Millisecond))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = stores.News.GetNewsByID(cancelled, "news-1")
	assert.Equal(t, context.Canceled, err)
}
