package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/news"
)

type newsApi struct {
	svc news.Service
}

func registerNewsAPI(g *echo.Group, svc news.Service) {
	api := newsApi{svc: svc}

	g.GET("", api.query)
	g.GET("/latest", api.latest)
	g.GET("/:id", api.retrieve)
	g.POST("", api.create, adminMiddleware())
	g.PUT("/:id", api.update, adminMiddleware())
	g.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *newsApi) query(ctx echo.Context) error {
	q := ctx.QueryParams()
	filter, err := news.ParseQueryFilter(q)
	if err != nil {
		return err
	}
	page, err := api.svc.GetNews(ctx.Request().Context(), filter, core.ParsePageRequest(q))
	if err != nil {
		return errors.Wrap(err, "querying news")
	}
	return okPage(ctx, page)
}

func (api *newsApi) latest(ctx echo.Context) error {
	items, err := api.svc.GetLatestNews(ctx.Request().Context(), queryInt(ctx.QueryParams(), "limit", 5))
	if err != nil {
		return errors.Wrap(err, "querying latest news")
	}
	return ok(ctx, http.StatusOK, items)
}

func (api *newsApi) retrieve(ctx echo.Context) error {
	n, err := api.svc.GetNewsByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding news by ID")
	}
	return ok(ctx, http.StatusOK, n)
}

func (api *newsApi) create(ctx echo.Context) error {
	var data news.NewNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNews")
	}
	if data.Author.ID == "" {
		usr, err := contextUser(ctx)
		if err != nil {
			return err
		}
		data.Author = usr.Ref()
	}
	n, err := api.svc.CreateNews(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating news")
	}
	return ok(ctx, http.StatusCreated, n)
}

func (api *newsApi) update(ctx echo.Context) error {
	var data news.UpdateNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNews")
	}
	n, err := api.svc.UpdateNews(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating news")
	}
	return ok(ctx, http.StatusOK, n)
}

func (api *newsApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteNews(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting news")
	}
	return okMessage(ctx, "deleted")
}
