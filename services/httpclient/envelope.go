package httpclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

// Envelope is the wrapper of every API response.
type Envelope[T any] struct {
	Success    bool             `json:"success"`
	Data       T                `json:"data,omitempty"`
	Message    string           `json:"message,omitempty"`
	Pagination *core.Pagination `json:"pagination,omitempty"`
}

// Send performs req and decodes the envelope. success=false is reported as an error.
func Send[T any](ctx context.Context, c *Client, req Request) (Envelope[T], error) {
	var env Envelope[T]
	resp, err := c.Do(ctx, req)
	if err != nil {
		return env, err
	}
	if err = resp.Decode(&env); err != nil {
		return env, err
	}
	if !env.Success && len(resp.Body) > 0 {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return env, &core.HTTPError{Status: resp.Status, Message: msg}
	}
	return env, nil
}

func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (Envelope[T], error) {
	return Send[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

func Post[T any](ctx context.Context, c *Client, path string, body interface{}) (Envelope[T], error) {
	return Send[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

func Put[T any](ctx context.Context, c *Client, path string, body interface{}) (Envelope[T], error) {
	return Send[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body})
}

func Patch[T any](ctx context.Context, c *Client, path string, body interface{}) (Envelope[T], error) {
	return Send[T](ctx, c, Request{Method: http.MethodPatch, Path: path, Body: body})
}

func Delete(ctx context.Context, c *Client, path string) error {
	_, err := Send[struct{}](ctx, c, Request{Method: http.MethodDelete, Path: path})
	return errors.WithMessage(err, "DELETE "+path)
}
