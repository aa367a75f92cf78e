package handlers

import (
	"equipahub/internal/adapters/http/middleware"
	"equipahub/internal/core/services"
	"equipahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard and report endpoints
type DashboardHandler struct {
	dashboard *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats returns the main dashboard figures
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	stats, err := h.dashboard.GetStats(c.Context(), actor)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Dashboard stats retrieved", stats)
}

// SummaryReport returns the coordinator lending report
func (h *DashboardHandler) SummaryReport(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	report, err := h.dashboard.GetSummaryReport(c.Context(), actor)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Summary report generated", report)
}
