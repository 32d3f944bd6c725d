package echoapi

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-portal/core"
)

type envelope struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data,omitempty"`
	Message    string           `json:"message,omitempty"`
	Code       string           `json:"code,omitempty"`
	Details    interface{}      `json:"details,omitempty"`
	Pagination *core.Pagination `json:"pagination,omitempty"`
}

func ok(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, envelope{Success: true, Data: data})
}

func okPage[T any](ctx echo.Context, page core.Page[T]) error {
	meta := page.Pagination()
	return ctx.JSON(200, envelope{Success: true, Data: page.Data, Pagination: &meta})
}

func okMessage(ctx echo.Context, msg string) error {
	return ctx.JSON(200, envelope{Success: true, Message: msg})
}

// queryInt reads a positive integer query param, falling back to def.
func queryInt(q url.Values, name string, def int) int {
	if n, err := strconv.Atoi(q.Get(name)); err == nil && n > 0 {
		return n
	}
	return def
}
