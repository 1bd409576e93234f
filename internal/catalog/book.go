package catalog

import (
	"time"

	"github.com/readstack/readstack/internal/platform/database/schema"
	"github.com/readstack/readstack/internal/store"
)

// CreateBookInput is the payload for adding a book to the catalog.
type CreateBookInput struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year"`
	Genre       string  `json:"genre"`
	Pages       int     `json:"pages"`
	ISBN        *string `json:"isbn"`
	Description *string `json:"description"`
}

// UpdateBookInput is the payload for a partial book update. Only non-nil
// fields are written.
type UpdateBookInput struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Year        *int    `json:"year"`
	Genre       *string `json:"genre"`
	Pages       *int    `json:"pages"`
	Available   *bool   `json:"available"`
	ISBN        *string `json:"isbn"`
	Description *string `json:"description"`
}

// fields renders the patch as column/value pairs for the repository.
func (input UpdateBookInput) fields() map[string]any {
	fields := make(map[string]any)

	if input.Title != nil {
		fields[schema.Book.Title] = *input.Title
	}
	if input.Author != nil {
		fields[schema.Book.Author] = *input.Author
	}
	if input.Year != nil {
		fields[schema.Book.Year] = *input.Year
	}
	if input.Genre != nil {
		fields[schema.Book.Genre] = *input.Genre
	}
	if input.Pages != nil {
		fields[schema.Book.Pages] = *input.Pages
	}
	if input.Available != nil {
		fields[schema.Book.Available] = *input.Available
	}
	if input.ISBN != nil {
		fields[schema.Book.ISBN] = *input.ISBN
	}
	if input.Description != nil {
		fields[schema.Book.Description] = *input.Description
	}

	return fields
}

// Filter holds the parameters for a paginated catalog search.
type Filter = store.BookFilter

// BookResponse is the public representation of a catalog book.
type BookResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Year        int            `json:"year"`
	Genre       string         `json:"genre"`
	Pages       int            `json:"pages"`
	Available   bool           `json:"available"`
	ISBN        *string        `json:"isbn"`
	Description *string        `json:"description"`
	Extra       map[string]any `json:"extra"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// toResponse maps a stored book onto the public shape.
func toResponse(book *store.Book) *BookResponse {
	return &BookResponse{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Year:        book.Year,
		Genre:       book.Genre,
		Pages:       book.Pages,
		Available:   book.Available,
		ISBN:        book.ISBN,
		Description: book.Description,
		Extra:       book.Extra,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

// toResponses maps a page of stored books.
func toResponses(books []*store.Book) []*BookResponse {
	responses := make([]*BookResponse, 0, len(books))
	for _, book := range books {
		responses = append(responses, toResponse(book))
	}
	return responses
}

// Global field names for validation
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldYear        = "year"
	FieldGenre       = "genre"
	FieldPages       = "pages"
	FieldISBN        = "isbn"
	FieldDescription = "description"
)
