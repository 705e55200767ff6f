package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mberk/pdfshelf-be/internal/models"
)

// EventServiceProvider defines the interface for the activity feed.
type EventServiceProvider interface {
	Record(ctx context.Context, eventType, level, message string, actorID *string) error
	GetRecent(ctx context.Context, limit int) ([]models.Event, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService persists and serves the activity feed.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// Record logs a new event.
func (s *EventService) Record(ctx context.Context, eventType, level, message string, actorID *string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), eventType, level, message, actorID, toNanos(time.Now()))
	return err
}

// GetRecent retrieves the most recent events, newest first.
func (s *EventService) GetRecent(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, actor_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			event   models.Event
			created int64
		)
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ActorID, &created); err != nil {
			return nil, err
		}
		event.CreatedAt = fromNanos(created)
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneOlderThan deletes events created before the cutoff and reports how
// many rows were removed.
func (s *EventService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", toNanos(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
