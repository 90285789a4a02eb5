package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"voxrouter/internal/store"
)

// Calendar is where events are read from and written to.
type Calendar interface {
	Events(ctx context.Context, from, to time.Time) ([]store.Event, error)
	Create(ctx context.Context, e store.Event) (store.Event, error)
}

type EventStore interface {
	EventsBetween(ctx context.Context, from, to time.Time) ([]store.Event, error)
	CreateEvent(ctx context.Context, e store.Event) (store.Event, error)
}

// LocalCalendar keeps events in the local database.
type LocalCalendar struct {
	store EventStore
}

func NewLocalCalendar(st EventStore) *LocalCalendar {
	return &LocalCalendar{store: st}
}

func (c *LocalCalendar) Events(ctx context.Context, from, to time.Time) ([]store.Event, error) {
	return c.store.EventsBetween(ctx, from, to)
}

func (c *LocalCalendar) Create(ctx context.Context, e store.Event) (store.Event, error) {
	return c.store.CreateEvent(ctx, e)
}

const (
	primaryCalendar = "primary"
	maxListed       = 50
)

// GoogleCalendar talks to the user's primary Google calendar.
type GoogleCalendar struct {
	svc        *calendar.Service
	calendarID string
}

// NewGoogleCalendar loads an OAuth client secret and a previously issued
// token (JSON, as written by the Google quickstart tools).
func NewGoogleCalendar(ctx context.Context, credentialsPath, tokenPath string) (*GoogleCalendar, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(creds, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}

	f, err := os.Open(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("open calendar token: %w", err)
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	return &GoogleCalendar{svc: svc, calendarID: primaryCalendar}, nil
}

func (c *GoogleCalendar) Events(ctx context.Context, from, to time.Time) ([]store.Event, error) {
	res, err := c.svc.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime").
		MaxResults(maxListed).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list google events: %w", err)
	}

	events := make([]store.Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, store.Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Start:       eventTime(item.Start, from.Location()),
			End:         eventTime(item.End, from.Location()),
		})
	}
	return events, nil
}

// eventTime reads either a timed or an all-day boundary.
func eventTime(dt *calendar.EventDateTime, loc *time.Location) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
		return t.In(loc)
	}
	if t, err := time.ParseInLocation(time.DateOnly, dt.Date, loc); err == nil {
		return t
	}
	return time.Time{}
}

func (c *GoogleCalendar) Create(ctx context.Context, e store.Event) (store.Event, error) {
	created, err := c.svc.Events.Insert(c.calendarID, &calendar.Event{
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       &calendar.EventDateTime{DateTime: e.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: e.End.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return store.Event{}, fmt.Errorf("create google event: %w", err)
	}

	e.ID = created.Id
	return e, nil
}
