package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

type userApi struct {
	svc user.Service
}

func registerUserAPI(g *echo.Group, svc user.Service) {
	api := userApi{svc: svc}
	admin := adminMiddleware()

	g.GET("", api.query, admin)
	g.POST("", api.create, admin)
	g.GET("/role/:role", api.queryByRole, admin)

	// detail endpoints
	g.GET("/:id", api.retrieve, ctxUserOrAdminMiddleware())
	g.PUT("/:id", api.update, admin)
	g.PATCH("/:id/toggle-status", api.toggleStatus, admin, notSelfMiddleware())
	g.DELETE("/:id", api.destroy, admin, notSelfMiddleware())
}

func (api *userApi) query(ctx echo.Context) error {
	q := ctx.QueryParams()
	filter, err := user.ParseQueryFilter(q)
	if err != nil {
		return err
	}
	page, err := api.svc.GetUsers(ctx.Request().Context(), filter, core.ParsePageRequest(q))
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return okPage(ctx, page)
}

func (api *userApi) queryByRole(ctx echo.Context) error {
	users, err := api.svc.GetUsersByRole(ctx.Request().Context(), ctx.Param("role"))
	if err != nil {
		return errors.Wrap(err, "querying users by role")
	}
	return ok(ctx, http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetUserByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ok(ctx, http.StatusOK, usr)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := api.svc.CreateUser(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ok(ctx, http.StatusCreated, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	usr, err := api.svc.UpdateUser(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ok(ctx, http.StatusOK, usr)
}

func (api *userApi) toggleStatus(ctx echo.Context) error {
	usr, err := api.svc.ToggleUserStatus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling user status")
	}
	return ok(ctx, http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteUser(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return okMessage(ctx, "deleted")
}

// ctxUserOrAdminMiddleware lets a user read their own record; admins read any.
func ctxUserOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := contextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsAdmin() {
				return next(ctx)
			}
			return core.NewNotFoundError(user.Resource, ctx.Param("id"))
		}
	}
}

// notSelfMiddleware forbids an admin from deactivating or deleting themselves.
func notSelfMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := contextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if ctx.Param("id") == ctxUsr.ID {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
