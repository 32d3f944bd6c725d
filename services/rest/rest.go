package restsvc

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

// Services are the entity services backed by the REST API.
type Services struct {
	Auth     *AuthService
	News     *NewsService
	Notices  *NoticeService
	Calendar *EventService
	Users    *UserService
}

func New(client *httpclient.Client) *Services {
	return &Services{
		Auth:     &AuthService{client: client},
		News:     &NewsService{client: client},
		Notices:  &NoticeService{client: client},
		Calendar: &EventService{client: client},
		Users:    &UserService{client: client},
	}
}

type queryEncoder interface {
	Encode(q url.Values)
}

func listQuery(filter queryEncoder, pr core.PageRequest) url.Values {
	q := make(url.Values)
	filter.Encode(q)
	pr.Encode(q)
	return q
}

func list[T any](ctx context.Context, c *httpclient.Client, path string, filter queryEncoder, pr core.PageRequest) (core.Page[T], error) {
	env, err := httpclient.Get[[]T](ctx, c, path, listQuery(filter, pr))
	if err != nil {
		return core.Page[T]{}, translate(err, "", "")
	}
	return core.NewPage(env.Data, env.Pagination, pr.Normalize(core.DefaultPageSize)), nil
}

func path(prefix, id string, rest ...interface{}) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, r := range rest {
		p += fmt.Sprintf("/%v", r)
	}
	return p
}

// translate maps API errors to the errors returned by the mock services.
func translate(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	var hErr *core.HTTPError
	if !errors.As(err, &hErr) {
		return err
	}
	switch {
	case hErr.Status == 404 && resource != "":
		return core.NewNotFoundError(resource, id)
	case hErr.Code == core.CodeValidation || hErr.Status == 422:
		return core.NewValidationError(hErr, fieldErrors(hErr.Details)...)
	}
	return err
}

// fieldErrors reads {"field": "message"} details.
func fieldErrors(details interface{}) []core.FieldError {
	m, ok := details.(map[string]interface{})
	if !ok {
		return nil
	}
	flds := make([]core.FieldError, 0, len(m))
	for field, msg := range m {
		flds = append(flds, core.FieldError{Field: field, Error: fmt.Sprint(msg)})
	}
	sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
	return flds
}
