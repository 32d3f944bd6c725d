package httpclient

import (
	"context"

	"github.com/trezcool/masomo-portal/core"
)

// BearerInterceptor attaches the stored token as "Authorization: Bearer <token>".
func BearerInterceptor(storage core.Storage, tokenKey string) RequestInterceptor {
	return func(_ context.Context, req *Request) (*Response, error) {
		if req.NoAuth {
			return nil, nil
		}
		token := req.Token
		if token == "" {
			token, _, _ = storage.Get(tokenKey)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil, nil
	}
}

// UnauthorizedInterceptor clears the persisted session keys on any 401 and fires signal.
func UnauthorizedInterceptor(storage core.Storage, signal *core.Emitter[error], keys ...string) ErrorInterceptor {
	return func(_ context.Context, req *Request, err error) error {
		if !core.IsUnauthorized(err) || req.NoAuth {
			return err
		}
		for _, key := range keys {
			_ = storage.Remove(key)
		}
		signal.Emit(err)
		return err
	}
}

// LoggingInterceptor logs every failed request.
func LoggingInterceptor(logger core.Logger) ErrorInterceptor {
	return func(_ context.Context, req *Request, err error) error {
		logger.Debug(req.Method+" "+req.Path+" failed", err)
		return err
	}
}
