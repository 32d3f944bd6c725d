package restsvc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

const eventsPath = "/calendar/events"

type EventService struct {
	client *httpclient.Client
}

var _ calendar.Service = (*EventService)(nil)

func (s *EventService) GetEvents(ctx context.Context, filter calendar.QueryFilter, pr core.PageRequest) (core.Page[calendar.Event], error) {
	return list[calendar.Event](ctx, s.client, eventsPath, filter, pr)
}

func (s *EventService) GetEventByID(ctx context.Context, id string) (calendar.Event, error) {
	env, err := httpclient.Get[calendar.Event](ctx, s.client, path(eventsPath, id), nil)
	return env.Data, translate(err, calendar.Resource, id)
}

func (s *EventService) GetEventsByMonth(ctx context.Context, year int, month time.Month) ([]calendar.Event, error) {
	p := fmt.Sprintf("%s/month/%d/%d", eventsPath, year, int(month))
	env, err := httpclient.Get[[]calendar.Event](ctx, s.client, p, nil)
	return env.Data, translate(err, "", "")
}

func (s *EventService) GetUpcomingEvents(ctx context.Context, limit int) ([]calendar.Event, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	env, err := httpclient.Get[[]calendar.Event](ctx, s.client, eventsPath+"/upcoming", q)
	return env.Data, translate(err, "", "")
}

func (s *EventService) CreateEvent(ctx context.Context, ne calendar.NewEvent) (calendar.Event, error) {
	env, err := httpclient.Post[calendar.Event](ctx, s.client, eventsPath, ne)
	return env.Data, translate(err, "", "")
}

func (s *EventService) UpdateEvent(ctx context.Context, id string, ue calendar.UpdateEvent) (calendar.Event, error) {
	env, err := httpclient.Put[calendar.Event](ctx, s.client, path(eventsPath, id), ue)
	return env.Data, translate(err, calendar.Resource, id)
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	return translate(httpclient.Delete(ctx, s.client, path(eventsPath, id)), calendar.Resource, id)
}
