package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	mockstore "github.com/trezcool/masomo-portal/storage/mock"
)

const (
	contextUserKey  = "user"
	contextTokenKey = "userToken"
	bearerScheme    = "Bearer"
)

type authApi struct {
	auth *mockstore.AuthStore
}

func registerAuthAPI(g *echo.Group, authMw echo.MiddlewareFunc, auth *mockstore.AuthStore) {
	api := authApi{auth: auth}

	// un-authed endpoints
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.POST("/refresh", api.refresh)

	// authed endpoints
	g.GET("/validate", api.validate, authMw)
}

func (api *authApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	grant, err := api.auth.Login(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}
	return ok(ctx, http.StatusOK, grant)
}

// logout revokes the bearer token if any; it never fails on a bad token.
func (api *authApi) logout(ctx echo.Context) error {
	if token, found := bearerToken(ctx); found {
		if err := api.auth.Logout(ctx.Request().Context(), token); err != nil {
			return errors.Wrap(err, "revoking token")
		}
	}
	return okMessage(ctx, "logged out")
}

func (api *authApi) refresh(ctx echo.Context) error {
	token, found := bearerToken(ctx)
	if !found {
		return errMissingToken
	}
	grant, err := api.auth.Refresh(ctx.Request().Context(), token)
	if err != nil {
		return authFailure(err)
	}
	return ok(ctx, http.StatusOK, grant)
}

func (api *authApi) validate(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	return ok(ctx, http.StatusOK, usr)
}

// authMiddleware authenticates the bearer token and stores its user in the context.
func authMiddleware(auth *mockstore.AuthStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, found := bearerToken(ctx)
			if !found {
				return errMissingToken
			}
			usr, err := auth.Authenticate(ctx.Request().Context(), token)
			if err != nil {
				return authFailure(err)
			}
			ctx.Set(contextTokenKey, token)
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// authFailure reports every token failure as a 401 so the client drops its session.
func authFailure(err error) error {
	switch {
	case errors.Is(err, core.ErrAuthExpired):
		return errTokenExpired
	case errors.Is(err, core.ErrUnauthenticated), errors.Is(err, core.ErrAccountDeactivated):
		return errUnauthorized
	}
	return errors.Wrap(err, "authenticating token")
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := contextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func bearerToken(ctx echo.Context) (string, bool) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	l := len(bearerScheme)
	if len(auth) > l+1 && strings.EqualFold(auth[:l], bearerScheme) && auth[l] == ' ' {
		return strings.TrimSpace(auth[l+1:]), true
	}
	return "", false
}

func contextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
