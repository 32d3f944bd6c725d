package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/notice"
)

type noticeApi struct {
	svc notice.Service
}

func registerNoticeAPI(g *echo.Group, svc notice.Service) {
	api := noticeApi{svc: svc}

	g.GET("", api.query)
	g.GET("/unread-count", api.unreadCount)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/read", api.markAsRead)
	g.POST("", api.create, adminMiddleware())
	g.PUT("/:id", api.update, adminMiddleware())
	g.DELETE("/:id", api.destroy, adminMiddleware())
}

// query lists notices; non-admins only see the notices addressed to them.
func (api *noticeApi) query(ctx echo.Context) error {
	q := ctx.QueryParams()
	filter, err := notice.ParseQueryFilter(q)
	if err != nil {
		return err
	}
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		filter.RecipientID = usr.ID
	}
	page, err := api.svc.GetNotices(ctx.Request().Context(), filter, core.ParsePageRequest(q))
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	return okPage(ctx, page)
}

func (api *noticeApi) retrieve(ctx echo.Context) error {
	n, err := api.svc.GetNoticeByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding notice by ID")
	}
	return ok(ctx, http.StatusOK, n)
}

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if data.Author.ID == "" {
		usr, err := contextUser(ctx)
		if err != nil {
			return err
		}
		data.Author = usr.Ref()
	}
	n, err := api.svc.CreateNotice(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ok(ctx, http.StatusCreated, n)
}

func (api *noticeApi) update(ctx echo.Context) error {
	var data notice.UpdateNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNotice")
	}
	n, err := api.svc.UpdateNotice(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating notice")
	}
	return ok(ctx, http.StatusOK, n)
}

func (api *noticeApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteNotice(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return okMessage(ctx, "deleted")
}

type markAsReadRequest struct {
	UserID string `json:"userId"`
}

func (api *noticeApi) markAsRead(ctx echo.Context) error {
	var data markAsReadRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to markAsReadRequest")
	}
	userID, err := targetUser(ctx, data.UserID)
	if err != nil {
		return err
	}
	n, err := api.svc.MarkAsRead(ctx.Request().Context(), ctx.Param("id"), userID)
	if err != nil {
		return errors.Wrap(err, "marking notice as read")
	}
	return ok(ctx, http.StatusOK, n)
}

func (api *noticeApi) unreadCount(ctx echo.Context) error {
	userID, err := targetUser(ctx, ctx.QueryParam("userId"))
	if err != nil {
		return err
	}
	count, err := api.svc.GetUnreadCount(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "counting unread notices")
	}
	return ok(ctx, http.StatusOK, echo.Map{"count": count})
}

// targetUser defaults userID to the context user; only admins may act for someone else.
func targetUser(ctx echo.Context, userID string) (string, error) {
	usr, err := contextUser(ctx)
	if err != nil {
		return "", err
	}
	switch {
	case userID == "" || userID == usr.ID:
		return usr.ID, nil
	case usr.IsAdmin():
		return userID, nil
	}
	return "", errHttpForbidden
}
