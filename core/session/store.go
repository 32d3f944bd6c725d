package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

// Store owns the session: it persists it, refreshes it before it expires
// and clears it on logout, expiry, a 401 or a token removed by another holder of the storage.
type Store struct {
	auth    Authenticator
	storage core.Storage
	conf    core.AuthConfig
	logger  core.Logger
	clock   Clock

	mu    sync.Mutex
	sess  *Session
	epoch uint64 // bumped when the session is replaced or cleared
	gen   uint64 // bumped when the refresh timer is (re)armed or cancelled
	timer Timer

	refreshMu sync.Mutex
	states    *core.Emitter[State]
	unsubs    []func()
}

const refreshTimeout = 30 * time.Second

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogoutSignal clears the session whenever signal fires.
func WithLogoutSignal(signal LogoutSignal) Option {
	return func(s *Store) {
		s.unsubs = append(s.unsubs, signal.Subscribe(func(err error) {
			s.clear(ReasonUnauthorized, err)
		}))
	}
}

func NewStore(auth Authenticator, storage core.Storage, conf *core.Config, logger core.Logger, opts ...Option) *Store {
	s := &Store{
		auth:    auth,
		storage: storage,
		conf:    conf.Auth,
		logger:  logger,
		clock:   systemClock{},
		states:  core.NewEmitter[State]("session", logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubs = append(s.unsubs, storage.Watch(s.onStorageChange))
	return s
}

func (s *Store) onStorageChange(c core.StorageChange) {
	if c.Key == s.conf.TokenKey && c.Removed {
		s.clear(ReasonRemoteLogout, nil)
	}
}

// Subscribe registers fn for every session transition.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.states.Subscribe(fn)
}

// Login authenticates creds, persists the session and arms the refresh.
func (s *Store) Login(ctx context.Context, creds user.Credentials) (user.User, error) {
	creds.Clean()
	grant, err := s.auth.Login(ctx, creds)
	if err == nil && grant.Token == "" {
		err = errors.New("login response without token")
	}
	if err != nil {
		s.states.Emit(State{Reason: ReasonLoginFailed, Err: err})
		return user.User{}, err
	}

	sess := s.sessionOf(grant)
	if err = s.persist(sess); err != nil {
		s.removeKeys()
		s.states.Emit(State{Reason: ReasonLoginFailed, Err: err})
		return user.User{}, err
	}

	s.mu.Lock()
	s.sess = &sess
	s.epoch++
	s.mu.Unlock()

	s.ScheduleRefresh()
	s.logger.Info("logged in", sess.User)
	s.states.Emit(State{Authenticated: true, User: sess.User, Reason: ReasonLogin})
	return sess.User, nil
}

// Logout notifies the server (best effort) then always clears the local session.
func (s *Store) Logout(ctx context.Context) {
	if token := s.Token(); token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.logger.Warn("server logout failed", err)
		}
	}
	s.clear(ReasonLogout, nil)
}

// IsAuthenticated reports whether a session exists and has not expired.
// An expired session is cleared as a side effect.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.current()
	return ok
}

// HasRole: an admin satisfies every role, anyone else only its own; no session satisfies none.
func (s *Store) HasRole(role string) bool {
	sess, ok := s.current()
	if !ok {
		return false
	}
	return user.HasRole(sess.Role(), role)
}

func (s *Store) CurrentUser() (user.User, bool) {
	sess, ok := s.current()
	return sess.User, ok
}

// Token returns the bearer token of the live session, or "".
func (s *Store) Token() string {
	sess, _ := s.current()
	return sess.Token
}

func (s *Store) Session() (Session, bool) {
	return s.current()
}

func (s *Store) current() (Session, bool) {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return Session{}, false
	}
	sess := *s.sess
	s.mu.Unlock()

	if !s.clock.Now().Before(sess.ExpiresAt) {
		s.clear(ReasonExpired, core.ErrAuthExpired)
		return Session{}, false
	}
	return sess, true
}

// ScheduleRefresh arms the refresh RefreshBefore the expiry, no sooner than RefreshFloor from now.
// Re-arming cancels the previous timer; a timer that fires after being superseded does nothing.
func (s *Store) ScheduleRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	if s.sess == nil {
		return
	}
	delay := s.refreshDelay(s.sess.ExpiresAt)
	gen := s.gen
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(gen) })
}

func (s *Store) refreshDelay(expiresAt time.Time) time.Duration {
	delay := expiresAt.Add(-s.conf.RefreshBefore).Sub(s.clock.Now())
	if delay < s.conf.RefreshFloor {
		delay = s.conf.RefreshFloor
	}
	return delay
}

// must be called with mu held.
func (s *Store) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) fire(gen uint64) {
	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	s.RefreshToken(ctx)
}

// RefreshToken replaces the token and expiry and re-arms the refresh.
// On failure the session is cleared and false returned.
func (s *Store) RefreshToken(ctx context.Context) bool {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return false
	}
	prev, epoch := *s.sess, s.epoch
	s.mu.Unlock()

	grant, err := s.auth.Refresh(ctx, prev.Token)
	if err == nil && grant.Token == "" {
		err = errors.New("refresh response without token")
	}
	if err != nil {
		s.logger.Error("refreshing token", err, prev.User)
		s.clear(ReasonRefreshFailed, err)
		return false
	}
	if grant.User.ID == "" {
		grant.User = prev.User
	}
	sess := s.sessionOf(grant)

	s.mu.Lock()
	if s.sess == nil || s.epoch != epoch { // logged out or in again meanwhile
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if err = s.persist(sess); err != nil {
		s.logger.Error("persisting refreshed session", err)
		s.clear(ReasonRefreshFailed, err)
		return false
	}

	s.mu.Lock()
	s.sess = &sess
	s.epoch++
	s.mu.Unlock()

	s.ScheduleRefresh()
	s.states.Emit(State{Authenticated: true, User: sess.User, Reason: ReasonRefresh})
	return true
}

// Restore loads the persisted session. Partial, unreadable or expired data is discarded.
func (s *Store) Restore() bool {
	sess, err := s.load()
	if err != nil {
		if !errors.Is(err, errNoSession) {
			s.logger.Warn("discarding persisted session", err)
		}
		s.removeKeys()
		return false
	}
	if !s.clock.Now().Before(sess.ExpiresAt) {
		s.removeKeys()
		return false
	}

	s.mu.Lock()
	s.sess = &sess
	s.epoch++
	s.mu.Unlock()

	s.ScheduleRefresh()
	s.states.Emit(State{Authenticated: true, User: sess.User, Reason: ReasonRestore})
	return true
}

// ValidateSession checks the token against the server and refreshes the stored user.
// The session is cleared unless the server could not be reached.
func (s *Store) ValidateSession(ctx context.Context) error {
	sess, ok := s.current()
	if !ok {
		return core.ErrUnauthenticated
	}
	usr, err := s.auth.Validate(ctx, sess.Token)
	if err != nil {
		if core.IsNetwork(err) || core.IsTimeout(err) {
			return err
		}
		s.clear(ReasonInvalid, err)
		return err
	}

	sess.User = usr
	if err = s.persist(sess); err != nil {
		return err
	}
	s.mu.Lock()
	if s.sess != nil && s.sess.Token == sess.Token {
		s.sess.User = usr
	}
	s.mu.Unlock()
	return nil
}

// Close cancels the refresh and detaches from the storage and logout signal.
// The persisted session is kept.
func (s *Store) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	s.states.Clear()
}

// clear drops the in-memory session, cancels the refresh and removes the persisted keys.
// It is idempotent; subscribers are only notified when a session was present.
func (s *Store) clear(reason Reason, cause error) {
	s.mu.Lock()
	prev := s.sess
	s.sess = nil
	s.epoch++
	s.stopTimerLocked()
	s.mu.Unlock()

	// storage watchers run synchronously and may call back into clear
	s.removeKeys()
	if prev != nil {
		s.logger.Info("session cleared: "+string(reason), prev.User)
		s.states.Emit(State{Reason: reason, Err: cause})
	}
}

func (s *Store) sessionOf(g Grant) Session {
	exp := g.ExpiresAt
	if exp.IsZero() {
		if tokenExp, ok := ExpiryOf(g.Token); ok {
			exp = tokenExp
		} else {
			exp = s.clock.Now().Add(s.conf.TokenExpiry)
		}
	}
	return Session{User: g.User, Token: g.Token, ExpiresAt: exp.UTC()}
}

// Persistence: token, user & expiry are three keys written and cleared together.

var errNoSession = errors.New("no persisted session")

func (s *Store) persist(sess Session) error {
	usr, err := json.Marshal(sess.User)
	if err != nil {
		return errors.Wrap(err, "encoding user")
	}
	if err = s.storage.Set(s.conf.UserKey, string(usr)); err != nil {
		return errors.Wrap(err, "saving user")
	}
	if err = s.storage.Set(s.conf.ExpiryKey, sess.ExpiresAt.Format(time.RFC3339Nano)); err != nil {
		return errors.Wrap(err, "saving expiry")
	}
	// the token goes last: its presence marks a complete session
	return errors.Wrap(s.storage.Set(s.conf.TokenKey, sess.Token), "saving token")
}

func (s *Store) load() (Session, error) {
	token, hasToken, err := s.storage.Get(s.conf.TokenKey)
	if err != nil {
		return Session{}, errors.Wrap(err, "reading token")
	}
	rawUsr, hasUsr, err := s.storage.Get(s.conf.UserKey)
	if err != nil {
		return Session{}, errors.Wrap(err, "reading user")
	}
	rawExp, hasExp, err := s.storage.Get(s.conf.ExpiryKey)
	if err != nil {
		return Session{}, errors.Wrap(err, "reading expiry")
	}
	if !hasToken && !hasUsr && !hasExp {
		return Session{}, errNoSession
	}
	if !hasToken || !hasUsr || !hasExp || token == "" {
		return Session{}, errors.New("partial session")
	}

	var sess Session
	if err = json.Unmarshal([]byte(rawUsr), &sess.User); err != nil {
		return Session{}, errors.Wrap(err, "decoding user")
	}
	if sess.User.ID == "" {
		return Session{}, errors.New("user without id")
	}
	if sess.ExpiresAt, err = time.Parse(time.RFC3339Nano, rawExp); err != nil {
		return Session{}, errors.Wrap(err, "decoding expiry")
	}
	sess.Token = token
	return sess, nil
}

func (s *Store) removeKeys() {
	for _, key := range []string{s.conf.TokenKey, s.conf.UserKey, s.conf.ExpiryKey} {
		if err := s.storage.Remove(key); err != nil {
			s.logger.Error("removing "+key, err)
		}
	}
}
