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

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	engine *services.AllocationEngine
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(engine *services.AllocationEngine) *LoanHandler {
	return &LoanHandler{engine: engine}
}

// Create handles direct loan creation. The Idempotency-Key header
// makes retries safe.
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateDirectLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if key := c.Get("Idempotency-Key"); key != "" {
		input.IdempotencyKey = key
	}

	loan, err := h.engine.CreateDirectLoan(c.Context(), actor, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "Loan created successfully", loan)
}

// ConfirmPickup marks the handover of the unit
func (h *LoanHandler) ConfirmPickup(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.BodyParser(&req)

	loan, err := h.engine.ConfirmPickup(c.Context(), actor, id, req.Notes)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Pickup confirmed", loan)
}

// Return marks the unit as returned and completes the loan
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.BodyParser(&req)

	loan, err := h.engine.ReturnEquipment(c.Context(), actor, id, req.Notes)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Equipment returned successfully", loan)
}

// Cancel cancels a loan that was never picked up
func (h *LoanHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.engine.CancelLoan(c.Context(), actor, id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan cancelled", loan)
}

// Get returns one loan with its computed overdue flag
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.engine.GetLoan(c.Context(), actor, id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// List returns loans visible to the actor
func (h *LoanHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	params := pagination.GetParams(c)

	filter := repositories.LoanFilter{
		Status:      domain.LoanStatus(c.Query("status")),
		BorrowerID:  uint(c.QueryInt("borrower_id")),
		EquipmentID: uint(c.QueryInt("equipment_id")),
	}

	loans, total, err := h.engine.ListLoans(c.Context(), actor, filter, params.Offset, params.Limit)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// Overdue returns the currently overdue loans
func (h *LoanHandler) Overdue(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err := domain.Authorize(actor.Role, domain.ActionViewAllLoans); err != nil {
		return response.DomainError(c, err)
	}

	loans, err := h.engine.QueryOverdueLoans(c.Context(), h.engine.Now())
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Overdue loans retrieved successfully", loans)
}
