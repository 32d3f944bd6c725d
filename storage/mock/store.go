package mockstore

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/user"
)

// Stores are the local stand-ins of the real services, persisted in a core.Storage.
type Stores struct {
	News     *NewsStore
	Notices  *NoticeStore
	Calendar *EventStore
	Users    *UserStore
	Auth     *AuthStore
}

func New(storage core.Storage, conf *core.Config, validator *core.Validator) *Stores {
	cost := bcrypt.DefaultCost
	if conf.TestMode {
		cost = bcrypt.MinCost
	}
	cc := collectionConfig{
		storage: storage,
		conf:    conf,
		now:     func() time.Time { return time.Now().UTC() },
	}

	users := &UserStore{
		coll:       newCollection(cc, "users", user.Resource, seedUsers(cost)),
		validator:  validator,
		bcryptCost: cost,
	}
	return &Stores{
		News:     &NewsStore{coll: newCollection(cc, "news", news.Resource, seedNews), validator: validator},
		Notices:  &NoticeStore{coll: newCollection(cc, "notices", notice.Resource, seedNotices), validator: validator},
		Calendar: &EventStore{coll: newCollection(cc, "events", calendar.Resource, seedEvents), validator: validator},
		Users:    users,
		Auth: &AuthStore{
			users:   users,
			secret:  []byte(conf.Auth.SecretKey),
			ttl:     conf.Auth.TokenExpiry,
			latency: conf.Mock.Latency,
			revoked: make(map[string]struct{}),
		},
	}
}

// Reset drops every mock collection; they are seeded again on next access.
func (s *Stores) Reset() error {
	for _, reset := range []func() error{s.News.coll.reset, s.Notices.coll.reset, s.Calendar.coll.reset, s.Users.coll.reset} {
		if err := reset(); err != nil {
			return err
		}
	}
	return nil
}
