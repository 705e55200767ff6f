package models

import "time"

// BookOwner is the slice of the owning user embedded in book responses.
type BookOwner struct {
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}

// Book represents an uploaded PDF document owned by a user.
//
// PdfURL is set exactly once, during creation, after the PDF blob upload
// succeeds; edits never touch the PDF or thumbnail fields.
type Book struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PdfURL       string    `json:"pdfUrl"`
	PdfFileName  string    `json:"pdfFileName"`
	PdfSize      int64     `json:"pdfSize"`
	ThumbnailURL *string   `json:"thumbnailImage"`
	UserID       string    `json:"-"`
	User         BookOwner `json:"user"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BookPage is one page of the shared library listing.
type BookPage struct {
	Books       []Book `json:"books"`
	CurrentPage int    `json:"currentPage"`
	TotalBooks  int    `json:"totalBooks"`
	TotalPages  int    `json:"totalPages"`
}
