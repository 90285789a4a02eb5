package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

func (s *DB) CreateEvent(ctx context.Context, e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.End.Before(e.Start) {
		return Event{}, fmt.Errorf("event %q ends before it starts", e.Summary)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, summary, description, location, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Summary, e.Description, e.Location, e.Start.Unix(), e.End.Unix())
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// EventsBetween returns events starting in [from, to), earliest first.
func (s *DB) EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, summary, description, location, start_at, end_at FROM events
		WHERE start_at >= ? AND start_at < ?
		ORDER BY start_at, id`, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e          Event
			start, end int64
		)
		if err := rows.Scan(&e.ID, &e.Summary, &e.Description, &e.Location, &start, &end); err != nil {
			return nil, err
		}
		e.Start = time.Unix(start, 0).In(from.Location())
		e.End = time.Unix(end, 0).In(from.Location())
		events = append(events, e)
	}
	return events, rows.Err()
}
