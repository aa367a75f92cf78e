package handlers

import (
	"equipahub/internal/adapters/http/middleware"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
	"equipahub/internal/core/services"
	"equipahub/internal/pkg/pagination"
	"equipahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles reservation lifecycle endpoints
type ReservationHandler struct {
	engine *services.AllocationEngine
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(engine *services.AllocationEngine) *ReservationHandler {
	return &ReservationHandler{engine: engine}
}

// Create handles reservation creation
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateReservationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	res, err := h.engine.CreateReservation(c.Context(), actor, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "Reservation created successfully", res)
}

// Confirm confirms the reservation at the head of the unit's queue
func (h *ReservationHandler) Confirm(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	res, err := h.engine.ConfirmReservation(c.Context(), actor, id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Reservation confirmed", res)
}

// Cancel cancels a live reservation
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	res, err := h.engine.CancelReservation(c.Context(), actor, id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Reservation cancelled", res)
}

// Convert turns a confirmed reservation into a pending loan
func (h *ReservationHandler) Convert(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	var input services.ConvertToLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.engine.ConvertToLoan(c.Context(), actor, id, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "Reservation converted to loan", loan)
}

// List returns reservations visible to the actor
func (h *ReservationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	params := pagination.GetParams(c)

	filter := repositories.ReservationFilter{
		Status:      domain.ReservationStatus(c.Query("status")),
		RequesterID: uint(c.QueryInt("requester_id")),
		EquipmentID: uint(c.QueryInt("equipment_id")),
	}

	reservations, total, err := h.engine.ListReservations(c.Context(), actor, filter, params.Offset, params.Limit)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Reservations retrieved successfully", pagination.NewResponse(reservations, params, total))
}
