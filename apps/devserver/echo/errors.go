package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

var (
	errMissingToken  = newHTTPError(http.StatusUnauthorized, core.CodeUnauthorized, "missing or malformed jwt")
	errUnauthorized  = newHTTPError(http.StatusUnauthorized, core.CodeUnauthorized, "user not authenticated")
	errTokenExpired  = newHTTPError(http.StatusUnauthorized, core.CodeTokenExpired, "token has expired")
	errHttpForbidden = newHTTPError(http.StatusForbidden, core.CodeForbidden, "permission denied")
)

// httpError is an echo.HTTPError carrying an API error code.
type httpError struct {
	*echo.HTTPError
	Code string
}

func newHTTPError(status int, code, msg string) *httpError {
	return &httpError{HTTPError: echo.NewHTTPError(status, msg), Code: code}
}

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler writing every failure as an error envelope.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			status = http.StatusInternalServerError
			body   = envelope{Code: core.CodeInternal, Message: http.StatusText(http.StatusInternalServerError)}
		)

		var (
			hErr  *httpError
			eErr  *echo.HTTPError
			vErr  *core.ValidationError
			nfErr *core.NotFoundError
		)
		switch {
		case errors.As(err, &hErr):
			status, body.Code, body.Message = hErr.HTTPError.Code, hErr.Code, messageOf(hErr.HTTPError)
		case errors.Is(err, core.ErrInvalidCredentials):
			status, body.Code, body.Message = http.StatusUnauthorized, core.CodeInvalidCredentials, err.Error()
		case errors.Is(err, core.ErrAccountDeactivated):
			status, body.Code, body.Message = http.StatusForbidden, core.CodeAccountDeactivated, err.Error()
		case errors.Is(err, core.ErrAuthExpired):
			status, body.Code, body.Message = http.StatusUnauthorized, core.CodeTokenExpired, err.Error()
		case errors.Is(err, core.ErrUnauthenticated):
			status, body.Code, body.Message = http.StatusUnauthorized, core.CodeUnauthorized, core.ErrUnauthenticated.Error()
		case errors.As(err, &vErr):
			status, body.Code, body.Message = http.StatusBadRequest, core.CodeValidation, vErr.Error()
			if len(vErr.Fields) > 0 {
				body.Details = vErr.FieldMap()
			}
		case errors.As(err, &nfErr):
			status, body.Code, body.Message = http.StatusNotFound, core.CodeNotFound, nfErr.Error()
		case errors.As(err, &eErr):
			status, body.Message = eErr.Code, messageOf(eErr)
			body.Code = codeOf(status)
		default: // any other error is a server error
			var usr user.User
			if u, uErr := contextUser(ctx); uErr == nil {
				usr = u
			}
			logger.Error(body.Message, errors.Wrap(err, body.Message), usr)
		}

		if ctx.Echo().Debug && status == http.StatusInternalServerError {
			body.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(status)
			} else {
				err = ctx.JSON(status, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func messageOf(err *echo.HTTPError) string {
	if msg, ok := err.Message.(string); ok {
		return msg
	}
	return http.StatusText(err.Code)
}

func codeOf(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return core.CodeUnauthorized
	case http.StatusForbidden:
		return core.CodeForbidden
	case http.StatusNotFound:
		return core.CodeNotFound
	case http.StatusBadRequest:
		return core.CodeValidation
	}
	return core.CodeInternal
}
