package user

import (
	"context"

	"github.com/trezcool/masomo-portal/core"
)

const Resource = "user"

// Service is implemented by the REST-backed and the mock user services alike.
type Service interface {
	GetUsers(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[User], error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUsersByRole(ctx context.Context, role string) ([]User, error)
	CreateUser(ctx context.Context, nu NewUser) (User, error)
	UpdateUser(ctx context.Context, id string, uu UpdateUser) (User, error)
	ToggleUserStatus(ctx context.Context, id string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}
