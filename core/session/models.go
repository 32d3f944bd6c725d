package session

import (
	"context"
	"time"

	"github.com/trezcool/masomo-portal/core/user"
)

// Session is the authenticated user, bearer token and expiry held client-side.
type Session struct {
	User      user.User
	Token     string
	ExpiresAt time.Time
}

func (s Session) UserID() string { return s.User.ID }

func (s Session) Role() string { return s.User.Role }

// Grant is what the auth endpoints return on login and refresh.
type Grant struct {
	Token     string    `json:"token"`
	User      user.User `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticator talks to the auth endpoints (real or mock).
type Authenticator interface {
	Login(ctx context.Context, creds user.Credentials) (Grant, error)
	// Logout invalidates token server-side.
	Logout(ctx context.Context, token string) error
	// Refresh exchanges token for a new grant. The returned User may be empty.
	Refresh(ctx context.Context, token string) (Grant, error)
	Validate(ctx context.Context, token string) (user.User, error)
}

// Reason tells why the session state changed.
type Reason string

const (
	ReasonLogin         Reason = "login"
	ReasonLoginFailed   Reason = "login_failed"
	ReasonLogout        Reason = "logout"
	ReasonRestore       Reason = "restore"
	ReasonRefresh       Reason = "refresh"
	ReasonRefreshFailed Reason = "refresh_failed"
	ReasonExpired       Reason = "expired"
	ReasonUnauthorized  Reason = "unauthorized"
	ReasonRemoteLogout  Reason = "remote_logout"
	ReasonInvalid       Reason = "invalid"
)

// State is emitted to the store subscribers on every transition.
type State struct {
	Authenticated bool
	User          user.User
	Reason        Reason
	Err           error
}

// LogoutSignal broadcasts forced logouts, e.g. a 401 from any request.
type LogoutSignal interface {
	Subscribe(fn func(error)) (unsubscribe func())
}

// Timer is the armed refresh task.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the refresh scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
