package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nextread/library-service/internal/api/dto"
	"github.com/nextread/library-service/internal/domain"
	"github.com/nextread/library-service/internal/service"
	apperrors "github.com/nextread/library-service/pkg/util/errorutil"
)

// ReservationsHandler exposes the reservation lifecycle.
type ReservationsHandler struct {
	service *service.ReservationService
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(reservationService *service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{service: reservationService}
}

// List GET /api/reservations.
func (h *ReservationsHandler) List(c *fiber.Ctx) error {
	list, err := h.service.GetAllReservations(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewReservationResponses(list))
}

// Get GET /api/reservations/:id.
func (h *ReservationsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.service.GetReservationByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewReservationResponse(res))
}

// ListForUser GET /api/reservations/user/:userId?status=.
func (h *ReservationsHandler) ListForUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var query dto.ReservationStatusQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(query); err != nil {
		return err
	}

	list, err := h.service.GetReservationsByUserAndStatus(c.UserContext(), userID, domain.ReservationStatus(query.Status))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewReservationResponses(list))
}

// Reserve POST /api/reservations/reserve. A queued reservation is still a 201.
func (h *ReservationsHandler) Reserve(c *fiber.Ctx) error {
	var req dto.ReserveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.Reserve(c.UserContext(), req.UserID, req.BookID, req.BorrowDays)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewReservationResponse(res))
}

// Cancel DELETE /api/reservations/:id.
func (h *ReservationsHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Cancel(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": id, "cancelled": true})
}

// Return PUT /api/reservations/:id/return.
func (h *ReservationsHandler) Return(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.service.Return(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewReservationResponse(res))
}
