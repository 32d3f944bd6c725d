package restsvc

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

type AuthService struct {
	client *httpclient.Client
}

var _ session.Authenticator = (*AuthService)(nil)

func (s *AuthService) Login(ctx context.Context, creds user.Credentials) (session.Grant, error) {
	env, err := httpclient.Send[session.Grant](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   creds,
		NoAuth: true,
	})
	if err != nil {
		var hErr *core.HTTPError
		if errors.As(err, &hErr) {
			switch {
			case hErr.Code == core.CodeAccountDeactivated:
				return session.Grant{}, core.ErrAccountDeactivated
			case hErr.Status == http.StatusUnauthorized || hErr.Code == core.CodeInvalidCredentials:
				return session.Grant{}, core.ErrInvalidCredentials
			}
		}
		return session.Grant{}, translate(err, "", "")
	}
	return env.Data, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	_, err := httpclient.Send[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Token:  token,
	})
	return err
}

func (s *AuthService) Refresh(ctx context.Context, token string) (session.Grant, error) {
	env, err := httpclient.Send[session.Grant](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Token:  token,
	})
	return env.Data, err
}

func (s *AuthService) Validate(ctx context.Context, token string) (user.User, error) {
	env, err := httpclient.Send[user.User](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/auth/validate",
		Token:  token,
	})
	return env.Data, err
}
