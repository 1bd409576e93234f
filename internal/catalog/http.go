package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/readstack/readstack/internal/platform/middleware"
	requestutil "github.com/readstack/readstack/internal/platform/request"
	"github.com/readstack/readstack/internal/platform/respond"
	"github.com/readstack/readstack/internal/platform/sec"
	"github.com/readstack/readstack/pkg/convert"
	"github.com/readstack/readstack/pkg/pagination"
	"github.com/readstack/readstack/pkg/pointer"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.searchBooks)
	router.Get("/genres", handler.listGenres)
	router.Get("/authors", handler.listAuthors)
	router.Get("/{id}", handler.getBook)

	// Registered users
	router.Group(func(userRoute chi.Router) {
		userRoute.Use(middleware.RequireRole(sec.RoleUser))

		userRoute.Post("/", handler.createBook)
		userRoute.Patch("/{id}", handler.updateBook)

		// Admin strict only
		userRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteBook)
	})
}

func (handler *Handler) searchBooks(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	query := request.URL.Query()
	filter := Filter{
		Title:  query.Get("title"),
		Author: query.Get("author"),
		Genre:  query.Get("genre"),
	}
	if raw := query.Get("year"); raw != "" {
		filter.Year = pointer.To(convert.ToInt(raw))
	}
	if raw := query.Get("available"); raw != "" {
		filter.Available = pointer.To(convert.ToBool(raw))
	}

	books, total, err := handler.service.SearchBooks(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.service.GetBook(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

func (handler *Handler) createBook(writer http.ResponseWriter, request *http.Request) {
	var input CreateBookInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.CreateBook(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, book)
}

func (handler *Handler) updateBook(writer http.ResponseWriter, request *http.Request) {
	var input UpdateBookInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UpdateBook(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

func (handler *Handler) deleteBook(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteBook(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) listGenres(writer http.ResponseWriter, request *http.Request) {
	genres, err := handler.service.Genres(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, genres)
}

func (handler *Handler) listAuthors(writer http.ResponseWriter, request *http.Request) {
	authors, err := handler.service.Authors(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, authors)
}
