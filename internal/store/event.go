package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EventKind identifies what an event records.
type EventKind string

const (
	EventDoubleBlink   EventKind = "double_blink"
	EventPlaybackOpen  EventKind = "playback_open"
	EventPlaybackClose EventKind = "playback_close"
	EventPlaybackError EventKind = "playback_error"
	EventActuatorError EventKind = "actuator_error"
)

// DefaultEventLimit is used by List when limit is not positive.
const DefaultEventLimit = 50

// Event is one entry of the event history.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Channel   string    `json:"channel,omitempty"`
	Value     float64   `json:"value"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository records and lists events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts an event, assigning its ID and timestamp when unset.
func (r *EventRepository) Record(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, kind, channel, value, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Channel, e.Value, e.Detail, e.CreatedAt,
	)
	return err
}

// List returns up to limit events, newest first.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := r.db.Query(
		`SELECT id, kind, channel, value, detail, created_at
		 FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Channel, &e.Value, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = EventKind(kind)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of recorded events of kind.
func (r *EventRepository) Count(kind EventKind) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events WHERE kind = ?`, string(kind)).Scan(&n)
	return n, err
}
