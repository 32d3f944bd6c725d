package mockstore

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

// AuthStore authenticates against the mock users and issues HS256 tokens.
type AuthStore struct {
	users   *UserStore
	secret  []byte
	ttl     time.Duration
	latency time.Duration

	mu      sync.Mutex
	revoked map[string]struct{} // token ids
}

var _ session.Authenticator = (*AuthStore)(nil)

func (a *AuthStore) Login(ctx context.Context, creds user.Credentials) (session.Grant, error) {
	creds.Clean()
	if err := a.users.validator.Struct(creds); err != nil {
		return session.Grant{}, err
	}
	rec, ok, err := a.users.findByLogin(ctx, creds.Username)
	if err != nil {
		return session.Grant{}, err
	}
	if !ok || !rec.checkPassword(creds.Password) {
		return session.Grant{}, core.ErrInvalidCredentials
	}
	if !rec.IsActive {
		return session.Grant{}, core.ErrAccountDeactivated
	}

	rec, err = a.users.coll.update(ctx, rec.ID, func(r *userRecord) error {
		r.LastLogin = a.users.coll.now()
		return nil
	})
	if err != nil {
		return session.Grant{}, err
	}
	return a.grant(rec.User)
}

func (a *AuthStore) grant(usr user.User, origIat ...int64) (session.Grant, error) {
	claims := session.UserClaims(usr, a.users.coll.now(), a.ttl, origIat...)
	token, err := session.IssueToken(a.secret, claims)
	if err != nil {
		return session.Grant{}, err
	}
	return session.Grant{Token: token, User: usr, ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC()}, nil
}

// Logout revokes token.
func (a *AuthStore) Logout(ctx context.Context, token string) error {
	if err := core.Sleep(ctx, a.latency); err != nil {
		return err
	}
	claims, err := session.ParseToken(a.secret, token)
	if err != nil {
		return nil // nothing to revoke
	}
	a.revoke(claims.Id)
	return nil
}

// Refresh revokes token and issues a new one, keeping the original login time.
func (a *AuthStore) Refresh(ctx context.Context, token string) (session.Grant, error) {
	claims, usr, err := a.authenticate(ctx, token)
	if err != nil {
		return session.Grant{}, err
	}
	a.revoke(claims.Id)
	return a.grant(usr, claims.OriginalIssuedAt)
}

func (a *AuthStore) Validate(ctx context.Context, token string) (user.User, error) {
	_, usr, err := a.authenticate(ctx, token)
	return usr, err
}

// Authenticate returns the active user holding token.
func (a *AuthStore) Authenticate(ctx context.Context, token string) (user.User, error) {
	_, usr, err := a.authenticate(ctx, token)
	return usr, err
}

func (a *AuthStore) authenticate(ctx context.Context, token string) (*session.Claims, user.User, error) {
	claims, err := session.ParseToken(a.secret, token)
	if err != nil {
		return nil, user.User{}, err
	}
	if a.isRevoked(claims.Id) {
		return nil, user.User{}, errors.Wrap(core.ErrUnauthenticated, "token revoked")
	}
	usr, err := a.users.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if core.IsNotFound(err) {
			return nil, user.User{}, errors.Wrap(core.ErrUnauthenticated, "unknown user")
		}
		return nil, user.User{}, err
	}
	if !usr.IsActive {
		return nil, user.User{}, core.ErrAccountDeactivated
	}
	return claims, usr, nil
}

func (a *AuthStore) revoke(id string) {
	if id == "" {
		return
	}
	a.mu.Lock()
	a.revoked[id] = struct{}{}
	a.mu.Unlock()
}

func (a *AuthStore) isRevoked(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.revoked[id]
	return ok
}
