package google

import (
	"context"
	"fmt"
	"time"

	recorddomain "unibox-backend/internal/record/domain"

	"google.golang.org/api/calendar/v3"
)

// CalendarMaxResults is the largest page Google Calendar returns for events.list.
const CalendarMaxResults = 2500

// CalendarProvider reads and writes events of a linked account's primary calendar.
type CalendarProvider struct {
	api        apiClient
	calendarID string
}

func NewCalendarProvider(timeout time.Duration) *CalendarProvider {
	return &CalendarProvider{
		api:        apiClient{timeout: timeout},
		calendarID: "primary",
	}
}

func (p *CalendarProvider) Kind() recorddomain.Kind { return recorddomain.KindEvent }

func (p *CalendarProvider) MaxResults() int { return CalendarMaxResults }

func (p *CalendarProvider) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	srv, err := calendar.NewService(ctx, p.api.options(ctx, accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	return srv, nil
}

// List expands recurring events and returns them ordered by start time,
// following pageToken until MaxResults events are collected.
func (p *CalendarProvider) List(ctx context.Context, accessToken string, q recorddomain.ProviderQuery) (*recorddomain.ProviderPage, error) {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	want := clampMax(q.MaxResults, CalendarMaxResults)
	call := srv.Events.List(p.calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(q.TimeMin.UTC().Format(time.RFC3339))
	if q.TimeMax != nil {
		call = call.TimeMax(q.TimeMax.UTC().Format(time.RFC3339))
	}
	if q.Search != "" {
		call = call.Q(q.Search)
	}

	items := make([]*recorddomain.Item, 0, want)
	pageToken := ""
	for {
		call = call.MaxResults(int64(want - len(items)))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, wrapErr("list calendar events", err)
		}
		for _, ev := range resp.Items {
			if ev.Status == "cancelled" {
				continue
			}
			items = append(items, eventToItem(ev))
		}
		pageToken = resp.NextPageToken
		if pageToken == "" || len(items) >= want {
			break
		}
	}
	if len(items) > want {
		items = items[:want]
	}

	return &recorddomain.ProviderPage{Items: items, Total: len(items)}, nil
}

func (p *CalendarProvider) Get(ctx context.Context, accessToken, externalID string) (*recorddomain.Item, error) {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	ev, err := srv.Events.Get(p.calendarID, externalID).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("get calendar event", err)
	}
	return eventToItem(ev), nil
}

func (p *CalendarProvider) Insert(ctx context.Context, accessToken string, in *recorddomain.ItemInput) (*recorddomain.Item, error) {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	ev, err := srv.Events.Insert(p.calendarID, inputToEvent(in)).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("insert calendar event", err)
	}
	return eventToItem(ev), nil
}

func (p *CalendarProvider) Update(ctx context.Context, accessToken, externalID string, in *recorddomain.ItemInput) (*recorddomain.Item, error) {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	ev, err := srv.Events.Update(p.calendarID, externalID, inputToEvent(in)).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("update calendar event", err)
	}
	return eventToItem(ev), nil
}

func (p *CalendarProvider) Delete(ctx context.Context, accessToken, externalID string) error {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := srv.Events.Delete(p.calendarID, externalID).Context(ctx).Do(); err != nil {
		return wrapErr("delete calendar event", err)
	}
	return nil
}

func eventToItem(ev *calendar.Event) *recorddomain.Item {
	item := &recorddomain.Item{
		ExternalID:  ev.Id,
		Kind:        recorddomain.KindEvent,
		Subject:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		StartTime:   parseEventTime(ev.Start),
		EndTime:     parseEventTime(ev.End),
		Link:        ev.HtmlLink,
	}
	for _, a := range ev.Attendees {
		if a.Email != "" {
			item.Participants = append(item.Participants, a.Email)
		}
	}
	return item
}

// parseEventTime handles both timed events and all-day events (date only).
func parseEventTime(dt *calendar.EventDateTime) *time.Time {
	if dt == nil {
		return nil
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			t = t.UTC()
			return &t
		}
	}
	if dt.Date != "" {
		if t, err := time.Parse(time.DateOnly, dt.Date); err == nil {
			return &t
		}
	}
	return nil
}

func inputToEvent(in *recorddomain.ItemInput) *calendar.Event {
	ev := &calendar.Event{
		Summary:     in.Subject,
		Description: in.Description,
		Location:    in.Location,
		Start:       &calendar.EventDateTime{DateTime: in.StartTime.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: in.EndTime.UTC().Format(time.RFC3339)},
	}
	for _, email := range in.Participants {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ev
}
