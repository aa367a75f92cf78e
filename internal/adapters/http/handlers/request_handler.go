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

// RequestHandler handles bulk loan request endpoints
type RequestHandler struct {
	engine *services.AllocationEngine
}

// NewRequestHandler creates a new bulk request handler
func NewRequestHandler(engine *services.AllocationEngine) *RequestHandler {
	return &RequestHandler{engine: engine}
}

// Create opens a bulk loan request
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateBulkRequestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req, err := h.engine.CreateBulkRequest(c.Context(), actor, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "Bulk request created successfully", req)
}

// Decide records the coordinator's approval or rejection
func (h *RequestHandler) Decide(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var input services.DecideBulkRequestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req, err := h.engine.DecideBulkRequest(c.Context(), actor, id, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Bulk request decided", req)
}

// ConfirmPickup allocates units against an authorized request
func (h *RequestHandler) ConfirmPickup(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	results, err := h.engine.ConfirmBulkPickup(c.Context(), actor, id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Bulk pickup processed", results)
}

// Get returns one bulk request
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	req, err := h.engine.GetBulkRequest(c.Context(), actor, id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Bulk request retrieved successfully", req)
}

// List returns bulk requests visible to the actor
func (h *RequestHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	params := pagination.GetParams(c)

	filter := repositories.LoanRequestFilter{
		Status:      domain.LoanRequestStatus(c.Query("status")),
		RequesterID: uint(c.QueryInt("requester_id")),
	}

	requests, total, err := h.engine.ListBulkRequests(c.Context(), actor, filter, params.Offset, params.Limit)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Bulk requests retrieved successfully", pagination.NewResponse(requests, params, total))
}
