package dto

import (
	"time"

	"github.com/nextread/library-service/internal/domain"
)

// CreateBookRequest is the payload of POST /api/books.
type CreateBookRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Author      string  `json:"author" validate:"required,max=255"`
	ISBN        string  `json:"isbn" validate:"max=32"`
	Genre       string  `json:"genre" validate:"max=100"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	TotalCopies int     `json:"totalCopies" validate:"gte=0"`
	Description string  `json:"description" validate:"max=1000"`
}

// UpdateBookRequest is the payload of PUT /api/books/:id. Omitted fields are unchanged.
type UpdateBookRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Author      *string  `json:"author" validate:"omitempty,min=1,max=255"`
	ISBN        *string  `json:"isbn" validate:"omitempty,max=32"`
	Genre       *string  `json:"genre" validate:"omitempty,max=100"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	TotalCopies *int     `json:"totalCopies" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
}

// BookResponse is the public shape of a book.
type BookResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Genre           string    `json:"genre"`
	Rating          float64   `json:"rating"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	InQueue         int       `json:"inQueue"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewBookResponse maps a domain book.
func NewBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Genre:           b.Genre,
		Rating:          b.Rating,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		InQueue:         b.InQueue,
		Description:     b.Description,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// NewBookResponses maps a list of books.
func NewBookResponses(books []domain.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, NewBookResponse(&books[i]))
	}
	return out
}
