package restsvc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

const usersPath = "/users"

type UserService struct {
	client *httpclient.Client
}

var _ user.Service = (*UserService)(nil)

func (s *UserService) GetUsers(ctx context.Context, filter user.QueryFilter, pr core.PageRequest) (core.Page[user.User], error) {
	return list[user.User](ctx, s.client, usersPath, filter, pr)
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (user.User, error) {
	env, err := httpclient.Get[user.User](ctx, s.client, path(usersPath, id), nil)
	return env.Data, translate(err, user.Resource, id)
}

func (s *UserService) GetUsersByRole(ctx context.Context, role string) ([]user.User, error) {
	env, err := httpclient.Get[[]user.User](ctx, s.client, usersPath+"/role/"+url.PathEscape(role), nil)
	return env.Data, translate(err, "", "")
}

func (s *UserService) CreateUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	env, err := httpclient.Post[user.User](ctx, s.client, usersPath, nu)
	return env.Data, translate(err, "", "")
}

func (s *UserService) UpdateUser(ctx context.Context, id string, uu user.UpdateUser) (user.User, error) {
	env, err := httpclient.Put[user.User](ctx, s.client, path(usersPath, id), uu)
	return env.Data, translate(err, user.Resource, id)
}

func (s *UserService) ToggleUserStatus(ctx context.Context, id string) (user.User, error) {
	env, err := httpclient.Send[user.User](ctx, s.client, httpclient.Request{
		Method: http.MethodPatch,
		Path:   path(usersPath, id, "toggle-status"),
	})
	return env.Data, translate(err, user.Resource, id)
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return translate(httpclient.Delete(ctx, s.client, path(usersPath, id)), user.Resource, id)
}
