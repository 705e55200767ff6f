package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/models"
	"github.com/mberk/pdfshelf-be/internal/storage"
)

// The list endpoint caps the page size so a single request cannot ask for
// the whole library.
const maxListLimit = 100

// CreateBookInput carries the fields of an upload request.
type CreateBookInput struct {
	Title          string
	Description    string
	PdfBase64      string
	PdfFileName    string
	PdfSize        int64
	ThumbnailImage string
}

// BookServiceProvider defines the interface for book services.
type BookServiceProvider interface {
	Create(ctx context.Context, ownerID string, in CreateBookInput) (models.Book, error)
	List(ctx context.Context, page, limit int) (models.BookPage, error)
	ListByUser(ctx context.Context, userID string) ([]models.Book, error)
	Update(ctx context.Context, id, actorID, title, description string) (models.Book, error)
	Delete(ctx context.Context, id, actorID string) error
}

// BookService provides business logic for the shared PDF library.
type BookService struct {
	db     *sql.DB
	blobs  storage.BlobStore
	events EventServiceProvider
	maint  MaintenanceServiceProvider
}

// NewBookService creates a new BookService.
func NewBookService(db *sql.DB, blobs storage.BlobStore, events EventServiceProvider, maint MaintenanceServiceProvider) *BookService {
	return &BookService{db: db, blobs: blobs, events: events, maint: maint}
}

// Create uploads the PDF (fatal on failure) and the optional thumbnail
// (best-effort), then persists the book owned by the caller. A thumbnail
// upload failure is logged and the book is stored without one.
func (s *BookService) Create(ctx context.Context, ownerID string, in CreateBookInput) (models.Book, error) {
	pdfURL, err := s.blobs.UploadRaw(ctx, in.PdfBase64)
	if err != nil {
		return models.Book{}, &UploadError{Err: err}
	}

	var thumbnailURL *string
	if in.ThumbnailImage != "" {
		url, err := s.blobs.UploadImage(ctx, in.ThumbnailImage)
		if err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Thumbnail upload failed, creating book without one")
		} else {
			thumbnailURL = &url
		}
	}

	book := models.Book{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		PdfURL:       pdfURL,
		PdfFileName:  in.PdfFileName,
		PdfSize:      in.PdfSize,
		ThumbnailURL: thumbnailURL,
		UserID:       ownerID,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO books(id, title, description, pdf_url, pdf_file_name, pdf_size, thumbnail_image, user_id, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Description, book.PdfURL, book.PdfFileName, book.PdfSize,
		book.ThumbnailURL, book.UserID, toNanos(book.CreatedAt))
	if err != nil {
		// The PDF blob is orphaned here; accepted risk, there is no
		// multi-store transaction.
		log.Error().Err(err).Str("pdf_url", pdfURL).Msg("Book insert failed after blob upload")
		return models.Book{}, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT username, profile_image FROM users WHERE id = ?", ownerID)
	if err := row.Scan(&book.User.Username, &book.User.ProfileImage); err != nil {
		return models.Book{}, err
	}

	s.record("book.create", fmt.Sprintf("Book %q uploaded", book.Title), ownerID)
	return book, nil
}

// List returns one page of the shared library, newest first, enriched with
// each owner's username and profile image.
func (s *BookService) List(ctx context.Context, page, limit int) (models.BookPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM books").Scan(&total); err != nil {
		return models.BookPage{}, err
	}

	books, err := s.queryBooks(ctx,
		`SELECT b.id, b.title, b.description, b.pdf_url, b.pdf_file_name, b.pdf_size, b.thumbnail_image,
		        b.user_id, b.created_at, u.username, u.profile_image
		 FROM books b JOIN users u ON u.id = b.user_id
		 ORDER BY b.created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return models.BookPage{}, err
	}

	return models.BookPage{
		Books:       books,
		CurrentPage: page,
		TotalBooks:  total,
		TotalPages:  (total + limit - 1) / limit,
	}, nil
}

// ListByUser returns all of one user's books, newest first, unpaginated.
func (s *BookService) ListByUser(ctx context.Context, userID string) ([]models.Book, error) {
	return s.queryBooks(ctx,
		`SELECT b.id, b.title, b.description, b.pdf_url, b.pdf_file_name, b.pdf_size, b.thumbnail_image,
		        b.user_id, b.created_at, u.username, u.profile_image
		 FROM books b JOIN users u ON u.id = b.user_id
		 WHERE b.user_id = ?
		 ORDER BY b.created_at DESC`,
		userID)
}

// Update overwrites title and description in place. Only the owning user may
// edit; the PDF and thumbnail fields are immutable via this path.
func (s *BookService) Update(ctx context.Context, id, actorID, title, description string) (models.Book, error) {
	book, err := s.getByID(ctx, id)
	if err != nil {
		return models.Book{}, err
	}
	if book.UserID != actorID {
		return models.Book{}, ErrNotOwner
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	_, err = s.db.ExecContext(ctx, "UPDATE books SET title = ?, description = ? WHERE id = ?", title, description, id)
	if err != nil {
		return models.Book{}, err
	}

	book.Title = title
	book.Description = description

	s.record("book.update", fmt.Sprintf("Book %q updated", title), actorID)
	return book, nil
}

// Delete removes a book after the same ownership check as Update. The
// thumbnail blob is evicted best-effort: a failed eviction is logged,
// queued for the janitor to retry, and never blocks the deletion. The PDF
// blob is deliberately kept so previously shared links stay alive.
func (s *BookService) Delete(ctx context.Context, id, actorID string) error {
	book, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if book.UserID != actorID {
		return ErrNotOwner
	}

	if book.ThumbnailURL != nil {
		if err := s.blobs.Destroy(ctx, *book.ThumbnailURL); err != nil && !errors.Is(err, storage.ErrNotManaged) {
			log.Warn().Err(err).Str("url", *book.ThumbnailURL).Msg("Thumbnail eviction failed, queueing retry")
			if s.maint != nil {
				if qErr := s.maint.EnqueueEviction(ctx, *book.ThumbnailURL, err); qErr != nil {
					log.Error().Err(qErr).Msg("Failed to queue thumbnail eviction")
				}
			}
		}
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id); err != nil {
		return err
	}

	s.record("book.delete", fmt.Sprintf("Book %q deleted", book.Title), actorID)
	return nil
}

func (s *BookService) getByID(ctx context.Context, id string) (models.Book, error) {
	books, err := s.queryBooks(ctx,
		`SELECT b.id, b.title, b.description, b.pdf_url, b.pdf_file_name, b.pdf_size, b.thumbnail_image,
		        b.user_id, b.created_at, u.username, u.profile_image
		 FROM books b JOIN users u ON u.id = b.user_id
		 WHERE b.id = ?`,
		id)
	if err != nil {
		return models.Book{}, err
	}
	if len(books) == 0 {
		return models.Book{}, ErrBookNotFound
	}
	return books[0], nil
}

func (s *BookService) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var (
			book      models.Book
			thumbnail sql.NullString
			created   int64
		)
		if err := rows.Scan(&book.ID, &book.Title, &book.Description, &book.PdfURL, &book.PdfFileName,
			&book.PdfSize, &thumbnail, &book.UserID, &created, &book.User.Username, &book.User.ProfileImage); err != nil {
			return nil, err
		}
		if thumbnail.Valid {
			book.ThumbnailURL = &thumbnail.String
		}
		book.CreatedAt = fromNanos(created)
		books = append(books, book)
	}
	return books, rows.Err()
}

func (s *BookService) record(eventType, message, actorID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(context.Background(), eventType, "info", message, &actorID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
