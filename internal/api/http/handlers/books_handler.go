package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nextread/library-service/internal/api/dto"
	"github.com/nextread/library-service/internal/service"
)

// BooksHandler serves the catalogue.
type BooksHandler struct {
	books        *service.BookService
	reservations *service.ReservationService
}

// NewBooksHandler constructs handler.
func NewBooksHandler(books *service.BookService, reservations *service.ReservationService) *BooksHandler {
	return &BooksHandler{books: books, reservations: reservations}
}

// List GET /api/books[?genre=].
func (h *BooksHandler) List(c *fiber.Ctx) error {
	books, err := h.books.ListBooks(c.UserContext(), c.Query("genre"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewBookResponses(books))
}

// Get GET /api/books/:id.
func (h *BooksHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.books.GetBook(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewBookResponse(book))
}

// Create POST /api/books.
func (h *BooksHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateBookRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	book, err := h.books.CreateBook(c.UserContext(), service.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Genre:       req.Genre,
		Rating:      req.Rating,
		TotalCopies: req.TotalCopies,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewBookResponse(book))
}

// Update PUT /api/books/:id.
func (h *BooksHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateBookRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	book, err := h.books.UpdateBook(c.UserContext(), id, service.BookUpdate{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Genre:       req.Genre,
		Rating:      req.Rating,
		Description: req.Description,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewBookResponse(book))
}

// Delete DELETE /api/books/:id.
func (h *BooksHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.books.DeleteBook(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": id, "deleted": true})
}

// Queue GET /api/books/:id/queue.
func (h *BooksHandler) Queue(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	queue, err := h.reservations.QueueForBook(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewReservationResponses(queue))
}
