package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/catalog"
	"github.com/readstack/readstack/internal/openlibrary"
	"github.com/readstack/readstack/internal/platform/apperr"
	"github.com/readstack/readstack/internal/platform/cache"
	"github.com/readstack/readstack/internal/platform/dberr"
	"github.com/readstack/readstack/internal/store"
	"github.com/readstack/readstack/pkg/pointer"
)

// # Fakes

type fakeBookRepo struct {
	byID       map[string]*store.Book
	byISBN     map[string]*store.Book
	created    []*store.Book
	updates    map[string]map[string]any
	deleteOK   bool
	genres     []string
	genreCalls int
	findResult []*store.Book
	findTotal  int
}

func (repo *fakeBookRepo) Create(_ context.Context, book *store.Book) error {
	book.ID = fmt.Sprintf("book-%d", len(repo.created)+1)
	now := time.Now()
	book.CreatedAt, book.UpdatedAt = now, now
	repo.created = append(repo.created, book)
	return nil
}

func (repo *fakeBookRepo) GetByID(_ context.Context, id string) (*store.Book, error) {
	if book, ok := repo.byID[id]; ok {
		return book, nil
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeBookRepo) Update(_ context.Context, id string, fields map[string]any) (*store.Book, error) {
	book, ok := repo.byID[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	if repo.updates == nil {
		repo.updates = map[string]map[string]any{}
	}
	repo.updates[id] = fields
	return book, nil
}

func (repo *fakeBookRepo) Delete(_ context.Context, id string) (bool, error) {
	return repo.deleteOK, nil
}

func (repo *fakeBookRepo) List(_ context.Context, limit, offset int) ([]*store.Book, error) {
	return repo.findResult, nil
}

func (repo *fakeBookRepo) Count(_ context.Context) (int, error) {
	return repo.findTotal, nil
}

func (repo *fakeBookRepo) FindByISBN(_ context.Context, isbn string) (*store.Book, error) {
	if book, ok := repo.byISBN[isbn]; ok {
		return book, nil
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeBookRepo) FindByFilters(_ context.Context, filter store.BookFilter, limit, offset int) ([]*store.Book, error) {
	return repo.findResult, nil
}

func (repo *fakeBookRepo) CountByFilters(_ context.Context, filter store.BookFilter) (int, error) {
	return repo.findTotal, nil
}

func (repo *fakeBookRepo) Genres(_ context.Context) ([]string, error) {
	repo.genreCalls++
	return repo.genres, nil
}

func (repo *fakeBookRepo) Authors(_ context.Context) ([]string, error) {
	return repo.genres, nil
}

type fakeUnitOfWork struct {
	books   *fakeBookRepo
	commits int
	closes  int
}

func (uow *fakeUnitOfWork) Books() store.BookRepository    { return uow.books }
func (uow *fakeUnitOfWork) Users() store.UserRepository    { return nil }
func (uow *fakeUnitOfWork) Commit(_ context.Context) error { uow.commits++; return nil }
func (uow *fakeUnitOfWork) Close(_ context.Context) error  { uow.closes++; return nil }

type fakeFactory struct {
	uow    *fakeUnitOfWork
	begins int
}

func (factory *fakeFactory) Begin(_ context.Context) (store.UnitOfWork, error) {
	factory.begins++
	return factory.uow, nil
}

type fakeEnricher struct {
	metadata *openlibrary.Metadata
	err      error
	calls    int
}

func (enricher *fakeEnricher) Enrich(_ context.Context, title, author, isbn string) (*openlibrary.Metadata, error) {
	enricher.calls++
	return enricher.metadata, enricher.err
}

func newCatalogService(t *testing.T, repo *fakeBookRepo, enricher *fakeEnricher) (*catalog.Service, *fakeFactory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheService := cache.NewService(cache.NewMemoryBackend(time.Minute), time.Minute, logger)
	factory := &fakeFactory{uow: &fakeUnitOfWork{books: repo}}
	return catalog.NewService(factory, enricher, cacheService, logger), factory
}

func validCreateInput() catalog.CreateBookInput {
	return catalog.CreateBookInput{
		Title:  "Dune",
		Author: "Frank Herbert",
		Year:   1965,
		Genre:  "Science Fiction",
		Pages:  412,
	}
}

// # Create

/*
TestCreateBook_EnrichesAndCommits verifies the happy path: the ISBN is
normalized, the enrichment payload lands in extra, and the scope commits once.
*/
func TestCreateBook_EnrichesAndCommits(t *testing.T) {
	repo := &fakeBookRepo{}
	enricher := &fakeEnricher{metadata: &openlibrary.Metadata{Publisher: pointer.To("Chilton")}}
	service, factory := newCatalogService(t, repo, enricher)

	input := validCreateInput()
	input.ISBN = pointer.To("978-0441013593")

	response, err := service.CreateBook(context.Background(), input)
	require.NoError(t, err)

	// 1. Persisted and committed
	require.Len(t, repo.created, 1)
	assert.Equal(t, 1, factory.uow.commits)
	assert.GreaterOrEqual(t, factory.uow.closes, 1)

	// 2. ISBN stored without separators
	require.NotNil(t, response.ISBN)
	assert.Equal(t, "9780441013593", *response.ISBN)

	// 3. Enrichment payload carried through
	assert.Equal(t, 1, enricher.calls)
	require.NotNil(t, response.Extra)
	assert.Equal(t, "Chilton", response.Extra["publisher"])

	// 4. New books are available by default
	assert.True(t, response.Available)
}

/*
TestCreateBook_ISBNConflict verifies that a taken ISBN rejects the create
before anything is written.
*/
func TestCreateBook_ISBNConflict(t *testing.T) {
	repo := &fakeBookRepo{
		byISBN: map[string]*store.Book{
			"9780441013593": {ID: "book-1"},
		},
	}
	service, factory := newCatalogService(t, repo, &fakeEnricher{})

	input := validCreateInput()
	input.ISBN = pointer.To("978-0441013593")

	_, err := service.CreateBook(context.Background(), input)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "CONFLICT", appError.Code)
	assert.Empty(t, repo.created)
	assert.Equal(t, 0, factory.uow.commits)
}

/*
TestCreateBook_EnrichmentFailureNotFatal verifies that a broken metadata
source never blocks the create; the book just lands without extra data.
*/
func TestCreateBook_EnrichmentFailureNotFatal(t *testing.T) {
	repo := &fakeBookRepo{}
	enricher := &fakeEnricher{err: errors.New("open library down")}
	service, factory := newCatalogService(t, repo, enricher)

	response, err := service.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Nil(t, response.Extra)
	assert.Equal(t, 1, factory.uow.commits)
}

/*
TestCreateBook_Validation verifies the input rules reject bad payloads
before any storage work starts.
*/
func TestCreateBook_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*catalog.CreateBookInput)
	}{
		{"missing title", func(input *catalog.CreateBookInput) { input.Title = "" }},
		{"year too old", func(input *catalog.CreateBookInput) { input.Year = 999 }},
		{"year in the future", func(input *catalog.CreateBookInput) { input.Year = time.Now().Year() + 1 }},
		{"zero pages", func(input *catalog.CreateBookInput) { input.Pages = 0 }},
		{"bad isbn", func(input *catalog.CreateBookInput) { input.ISBN = pointer.To("12345") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeBookRepo{}
			service, factory := newCatalogService(t, repo, &fakeEnricher{})

			input := validCreateInput()
			tt.mutate(&input)

			_, err := service.CreateBook(context.Background(), input)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "VALIDATION_ERROR", appError.Code)
			assert.Equal(t, 0, factory.begins)
		})
	}
}

// # Read

/*
TestGetBook_CachesSecondRead verifies read-through caching: the second read
of the same ID never opens a storage scope.
*/
func TestGetBook_CachesSecondRead(t *testing.T) {
	repo := &fakeBookRepo{
		byID: map[string]*store.Book{
			"book-1": {ID: "book-1", Title: "Dune", Available: true},
		},
	}
	service, factory := newCatalogService(t, repo, &fakeEnricher{})

	first, err := service.GetBook(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", first.Title)

	second, err := service.GetBook(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", second.Title)
	assert.Equal(t, 1, factory.begins)
}

/*
TestGetBook_NotFound verifies that an unknown ID surfaces NOT_FOUND.
*/
func TestGetBook_NotFound(t *testing.T) {
	service, _ := newCatalogService(t, &fakeBookRepo{}, &fakeEnricher{})

	_, err := service.GetBook(context.Background(), "missing")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

// # Update

/*
TestUpdateBook_EmptyPatchIsReadOnly verifies that a patch with no fields
returns the current state without touching storage or committing.
*/
func TestUpdateBook_EmptyPatchIsReadOnly(t *testing.T) {
	repo := &fakeBookRepo{
		byID: map[string]*store.Book{
			"book-1": {ID: "book-1", Title: "Dune"},
		},
	}
	service, factory := newCatalogService(t, repo, &fakeEnricher{})

	response, err := service.UpdateBook(context.Background(), "book-1", catalog.UpdateBookInput{})
	require.NoError(t, err)

	assert.Equal(t, "Dune", response.Title)
	assert.Empty(t, repo.updates)
	assert.Equal(t, 0, factory.uow.commits)
}

/*
TestUpdateBook_ISBNTakenByOther verifies that moving to an ISBN owned by a
different book is a conflict, while re-asserting your own ISBN is fine.
*/
func TestUpdateBook_ISBNTakenByOther(t *testing.T) {
	repo := &fakeBookRepo{
		byID: map[string]*store.Book{
			"book-1": {ID: "book-1", Title: "Dune"},
		},
		byISBN: map[string]*store.Book{
			"9780441013593": {ID: "book-2"},
		},
	}
	service, factory := newCatalogService(t, repo, &fakeEnricher{})

	// 1. ISBN owned by another book
	_, err := service.UpdateBook(context.Background(), "book-1", catalog.UpdateBookInput{
		ISBN: pointer.To("978-0441013593"),
	})
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "CONFLICT", appError.Code)
	assert.Equal(t, 0, factory.uow.commits)

	// 2. Same ISBN owned by the book itself
	repo.byISBN["9780441013593"].ID = "book-1"
	_, err = service.UpdateBook(context.Background(), "book-1", catalog.UpdateBookInput{
		ISBN: pointer.To("978-0441013593"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, factory.uow.commits)
}

/*
TestUpdateBook_NotFound verifies that patching an unknown ID surfaces
NOT_FOUND without a commit.
*/
func TestUpdateBook_NotFound(t *testing.T) {
	service, factory := newCatalogService(t, &fakeBookRepo{}, &fakeEnricher{})

	_, err := service.UpdateBook(context.Background(), "missing", catalog.UpdateBookInput{
		Title: pointer.To("New Title"),
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
	assert.Equal(t, 0, factory.uow.commits)
}

// # Delete

/*
TestDeleteBook verifies both delete outcomes: an existing book commits, an
unknown ID is NOT_FOUND without a commit.
*/
func TestDeleteBook(t *testing.T) {
	t.Run("existing book", func(t *testing.T) {
		repo := &fakeBookRepo{deleteOK: true}
		service, factory := newCatalogService(t, repo, &fakeEnricher{})

		err := service.DeleteBook(context.Background(), "book-1")
		require.NoError(t, err)
		assert.Equal(t, 1, factory.uow.commits)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := &fakeBookRepo{deleteOK: false}
		service, factory := newCatalogService(t, repo, &fakeEnricher{})

		err := service.DeleteBook(context.Background(), "missing")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "NOT_FOUND", appError.Code)
		assert.Equal(t, 0, factory.uow.commits)
	})
}

// # Search and Distinct Values

/*
TestSearchBooks verifies that the page and the total travel back together.
*/
func TestSearchBooks(t *testing.T) {
	repo := &fakeBookRepo{
		findResult: []*store.Book{
			{ID: "book-1", Title: "Dune"},
			{ID: "book-2", Title: "Dune Messiah"},
		},
		findTotal: 7,
	}
	service, _ := newCatalogService(t, repo, &fakeEnricher{})

	books, total, err := service.SearchBooks(context.Background(), catalog.Filter{Title: "dune"}, 2, 0)
	require.NoError(t, err)

	assert.Len(t, books, 2)
	assert.Equal(t, 7, total)
}

/*
TestGenres_CachedUntilWrite verifies that the distinct-genre list is served
from cache and refreshed after a catalog write.
*/
func TestGenres_CachedUntilWrite(t *testing.T) {
	repo := &fakeBookRepo{genres: []string{"Fantasy", "Science Fiction"}}
	service, _ := newCatalogService(t, repo, &fakeEnricher{})

	// 1. First call loads, second is cached
	genres, err := service.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "Science Fiction"}, genres)

	_, err = service.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.genreCalls)

	// 2. A write invalidates the catalog namespace
	_, err = service.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = service.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.genreCalls)
}
