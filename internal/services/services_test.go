package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mberk/pdfshelf-be/internal/database"
)

// --- shared test helpers ---

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// insertUser seeds a user row directly, skipping bcrypt to keep tests fast.
func insertUser(t *testing.T, db *sql.DB, username, email string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec(
		"INSERT INTO users(id, username, email, password_hash, profile_image, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		id, username, email, "x", "https://avatars.test/svg?seed="+username, toNanos(time.Now()))
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(1) FROM "+table).Scan(&n))
	return n
}

// fakeBlobStore stands in for the object storage service.
type fakeBlobStore struct {
	rawErr     error
	imageErr   error
	destroyErr error

	uploads   int
	destroyed []string
}

func (f *fakeBlobStore) UploadRaw(ctx context.Context, payload string) (string, error) {
	if f.rawErr != nil {
		return "", f.rawErr
	}
	f.uploads++
	return fmt.Sprintf("https://blobs.test/pdfs/%d.pdf", f.uploads), nil
}

func (f *fakeBlobStore) UploadImage(ctx context.Context, payload string) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	f.uploads++
	return fmt.Sprintf("https://blobs.test/thumbnails/%d.jpg", f.uploads), nil
}

func (f *fakeBlobStore) Destroy(ctx context.Context, url string) error {
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.destroyed = append(f.destroyed, url)
	return nil
}
