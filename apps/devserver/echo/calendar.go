package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
)

type eventApi struct {
	svc calendar.Service
}

func registerEventAPI(g *echo.Group, svc calendar.Service) {
	api := eventApi{svc: svc}

	g.GET("", api.query)
	g.GET("/upcoming", api.upcoming)
	g.GET("/month/:year/:month", api.month)
	g.GET("/:id", api.retrieve)
	g.POST("", api.create, adminMiddleware())
	g.PUT("/:id", api.update, adminMiddleware())
	g.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *eventApi) query(ctx echo.Context) error {
	q := ctx.QueryParams()
	filter, err := calendar.ParseQueryFilter(q)
	if err != nil {
		return err
	}
	page, err := api.svc.GetEvents(ctx.Request().Context(), filter, core.ParsePageRequest(q))
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return okPage(ctx, page)
}

func (api *eventApi) upcoming(ctx echo.Context) error {
	items, err := api.svc.GetUpcomingEvents(ctx.Request().Context(), queryInt(ctx.QueryParams(), "limit", 5))
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	return ok(ctx, http.StatusOK, items)
}

func (api *eventApi) month(ctx echo.Context) error {
	year, yErr := strconv.Atoi(ctx.Param("year"))
	month, mErr := strconv.Atoi(ctx.Param("month"))
	if yErr != nil || mErr != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "year and month must be numbers"})
	}
	items, err := api.svc.GetEventsByMonth(ctx.Request().Context(), year, time.Month(month))
	if err != nil {
		return errors.Wrap(err, "querying events by month")
	}
	return ok(ctx, http.StatusOK, items)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetEventByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}
	return ok(ctx, http.StatusOK, e)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if data.CreatedBy.ID == "" {
		usr, err := contextUser(ctx)
		if err != nil {
			return err
		}
		data.CreatedBy = usr.Ref()
	}
	e, err := api.svc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ok(ctx, http.StatusCreated, e)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data calendar.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	e, err := api.svc.UpdateEvent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ok(ctx, http.StatusOK, e)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteEvent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return okMessage(ctx, "deleted")
}
