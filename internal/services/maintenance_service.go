package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/storage"
)

// Evictions that keep failing are dropped after this many attempts so the
// queue cannot grow without bound.
const maxEvictionAttempts = 5

// MaintenanceServiceProvider defines the interface for background cleanup.
type MaintenanceServiceProvider interface {
	EnqueueEviction(ctx context.Context, url string, cause error) error
	RetryEvictions(ctx context.Context) (retried, dropped int, err error)
}

// MaintenanceService owns the blob eviction retry queue.
type MaintenanceService struct {
	db    *sql.DB
	blobs storage.BlobStore
}

// NewMaintenanceService creates a new MaintenanceService.
func NewMaintenanceService(db *sql.DB, blobs storage.BlobStore) *MaintenanceService {
	return &MaintenanceService{db: db, blobs: blobs}
}

// EnqueueEviction records a blob URL whose deletion failed so the janitor
// can retry it later.
func (s *MaintenanceService) EnqueueEviction(ctx context.Context, url string, cause error) error {
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blob_evictions(id, url, attempts, last_error, created_at) VALUES(?, ?, 0, ?, ?)",
		uuid.New().String(), url, lastError, toNanos(time.Now()))
	return err
}

// RetryEvictions walks the queue oldest-first, retrying each pending blob
// deletion. Rows are removed after a successful destroy or once the attempt
// budget is exhausted.
func (s *MaintenanceService) RetryEvictions(ctx context.Context) (int, int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, url, attempts FROM blob_evictions ORDER BY created_at ASC")
	if err != nil {
		return 0, 0, err
	}

	type pending struct {
		id       string
		url      string
		attempts int
	}
	var queue []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.url, &p.attempts); err != nil {
			rows.Close()
			return 0, 0, err
		}
		queue = append(queue, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	retried, dropped := 0, 0
	for _, p := range queue {
		err := s.blobs.Destroy(ctx, p.url)
		if err == nil {
			if _, err := s.db.ExecContext(ctx, "DELETE FROM blob_evictions WHERE id = ?", p.id); err != nil {
				return retried, dropped, err
			}
			retried++
			continue
		}

		if p.attempts+1 >= maxEvictionAttempts {
			log.Warn().Str("url", p.url).Int("attempts", p.attempts+1).Msg("Dropping blob eviction after repeated failures")
			if _, err := s.db.ExecContext(ctx, "DELETE FROM blob_evictions WHERE id = ?", p.id); err != nil {
				return retried, dropped, err
			}
			dropped++
			continue
		}

		if _, uerr := s.db.ExecContext(ctx,
			"UPDATE blob_evictions SET attempts = attempts + 1, last_error = ? WHERE id = ?",
			err.Error(), p.id); uerr != nil {
			return retried, dropped, uerr
		}
	}
	return retried, dropped, nil
}
