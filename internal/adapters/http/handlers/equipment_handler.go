package handlers

import (
	"strconv"

	"equipahub/internal/adapters/http/middleware"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
	"equipahub/internal/core/services"
	"equipahub/internal/pkg/pagination"
	"equipahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EquipmentHandler handles equipment inventory endpoints
type EquipmentHandler struct {
	engine *services.AllocationEngine
}

// NewEquipmentHandler creates a new equipment handler
func NewEquipmentHandler(engine *services.AllocationEngine) *EquipmentHandler {
	return &EquipmentHandler{engine: engine}
}

// Create handles equipment registration
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateEquipmentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	unit, err := h.engine.CreateEquipment(c.Context(), actor, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "Equipment created successfully", unit)
}

// Update handles editing of descriptive fields
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid equipment ID")
	}

	var input services.UpdateEquipmentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	unit, err := h.engine.UpdateEquipment(c.Context(), actor, id, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Equipment updated successfully", unit)
}

// SetStatus handles the maintenance/inactive/available toggles
func (h *EquipmentHandler) SetStatus(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid equipment ID")
	}

	var req struct {
		Status domain.EquipmentStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var unit interface{}
	switch req.Status {
	case domain.EquipmentMaintenance:
		unit, err = h.engine.SetEquipmentMaintenance(c.Context(), actor, id)
	case domain.EquipmentInactive:
		unit, err = h.engine.SetEquipmentInactive(c.Context(), actor, id)
	case domain.EquipmentAvailable:
		unit, err = h.engine.SetEquipmentAvailable(c.Context(), actor, id)
	default:
		return response.BadRequest(c, "Status must be maintenance, inactive or available")
	}
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Equipment status updated", unit)
}

// Delete handles equipment removal
func (h *EquipmentHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid equipment ID")
	}

	if err := h.engine.DeleteEquipment(c.Context(), actor, id); err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Equipment deleted successfully", nil)
}

// Get returns one equipment unit
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid equipment ID")
	}

	unit, err := h.engine.GetEquipment(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Equipment retrieved successfully", unit)
}

// List returns the inventory with optional filters
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.EquipmentFilter{
		Status:        domain.EquipmentStatus(c.Query("status")),
		Type:          domain.EquipmentType(c.Query("type")),
		Search:        c.Query("search"),
		ClaimEligible: c.QueryBool("claim_eligible"),
	}

	units, total, err := h.engine.ListEquipment(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Equipment retrieved successfully", pagination.NewResponse(units, params, total))
}

// parseID parses a numeric route parameter
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}
