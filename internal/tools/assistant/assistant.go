// Package assistant provides the personal assistant tools: calendar and camera.
package assistant

import (
	"context"
	log "log/slog"
	"time"

	"voxrouter/internal/store"
	"voxrouter/internal/timeexpr"
	"voxrouter/internal/tools"
)

const defaultDuration = 60

type Assistant struct {
	calendar Calendar
	camera   Camera
	now      func() time.Time
}

type Option func(*Assistant)

func WithCamera(c Camera) Option {
	return func(a *Assistant) { a.camera = c }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

func New(cal Calendar, opts ...Option) *Assistant {
	a := &Assistant{calendar: cal, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tools lists the calendar tools, plus camera_capture when a camera is set.
func (a *Assistant) Tools() []tools.Tool {
	out := []tools.Tool{
		tools.New("calendar_list_events", "List upcoming calendar events",
			tools.Object(map[string]tools.Property{
				"timeframe": {Type: "string", Enum: []string{"today", "tomorrow", "week"}, Default: "today"},
			}),
			a.listEvents),
		tools.New("calendar_create_event", "Create a calendar event",
			tools.Object(map[string]tools.Property{
				"title":            {Type: "string"},
				"start_time":       {Type: "string", Description: `spoken or ISO time, e.g. "tomorrow at 2pm"`},
				"duration_minutes": {Type: "integer", Default: defaultDuration, Minimum: tools.Bound(1)},
				"description":      {Type: "string"},
				"location":         {Type: "string"},
			}, "title", "start_time"),
			a.createEvent),
	}
	if a.camera != nil {
		out = append(out, tools.New("camera_capture", "Take a picture with the camera",
			tools.Object(nil), a.capture))
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// window maps a timeframe to [from, to) and the words used to speak it.
func window(timeframe string, now time.Time) (time.Time, time.Time, string) {
	today := startOfDay(now)
	switch timeframe {
	case "tomorrow":
		return today.AddDate(0, 0, 1), today.AddDate(0, 0, 2), "tomorrow"
	case "week":
		return now, now.AddDate(0, 0, 7), "this week"
	default:
		return today, today.AddDate(0, 0, 1), "today"
	}
}

func (a *Assistant) listEvents(ctx context.Context, params map[string]any) (tools.Result, error) {
	timeframe := tools.ParamString(params, "timeframe")
	from, to, spoken := window(timeframe, a.now())

	events, err := a.calendar.Events(ctx, from, to)
	if err != nil {
		return nil, err
	}

	layout := time.Kitchen
	if timeframe == "week" {
		layout = "Monday " + time.Kitchen
	}

	out := make([]tools.Result, 0, len(events))
	for _, e := range events {
		out = append(out, tools.Result{
			"id":         e.ID,
			"summary":    e.Summary,
			"start":      e.Start.Format(layout),
			"start_time": e.Start.Format(time.RFC3339),
			"end_time":   e.End.Format(time.RFC3339),
		})
	}

	return tools.Result{"success": true, "timeframe": spoken, "events": out}, nil
}

func (a *Assistant) createEvent(ctx context.Context, params map[string]any) (tools.Result, error) {
	title := tools.ParamString(params, "title")
	if title == "" {
		return tools.Result{"success": false, "error": "the event needs a title"}, nil
	}

	duration := tools.ParamInt(params, "duration_minutes", defaultDuration)
	if duration <= 0 {
		duration = defaultDuration
	}

	start := timeexpr.Parse(tools.ParamString(params, "start_time"), a.now())
	created, err := a.calendar.Create(ctx, store.Event{
		Summary:     title,
		Description: tools.ParamString(params, "description"),
		Location:    tools.ParamString(params, "location"),
		Start:       start,
		End:         start.Add(time.Duration(duration) * time.Minute),
	})
	if err != nil {
		log.Error("Create event failed", "title", title, "err", err)
		return tools.Result{"success": false, "error": err.Error()}, nil
	}

	return tools.Result{
		"success": true,
		"event": tools.Result{
			"id":      created.ID,
			"summary": created.Summary,
			"start":   created.Start.Format(time.RFC3339),
			"end":     created.End.Format(time.RFC3339),
		},
	}, nil
}

func (a *Assistant) capture(ctx context.Context, params map[string]any) (tools.Result, error) {
	path, err := a.camera.Capture(ctx)
	if err != nil {
		log.Error("Capture failed", "err", err)
		return tools.Result{"success": false, "error": err.Error()}, nil
	}
	return tools.Result{"success": true, "path": path}, nil
}
