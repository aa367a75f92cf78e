package handlers

import (
	"equipahub/internal/adapters/http/middleware"
	"equipahub/internal/core/services"
	"equipahub/internal/pkg/pagination"
	"equipahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles the user notification inbox
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the actor's notifications, newest first
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	params := pagination.GetParams(c)

	items, total, err := h.notifications.List(c.Context(), actor, services.ListNotificationsInput{
		Offset: params.Offset,
		Limit:  params.Limit,
	})
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(items, params, total))
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notifications.MarkRead(c.Context(), actor, id); err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Notification marked as read", nil)
}

// MarkAllRead marks every notification of the actor as read
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.notifications.MarkAllRead(c.Context(), actor); err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "All notifications marked as read", nil)
}

// UnreadCount returns the unread notification count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	count, err := h.notifications.CountUnread(c.Context(), actor)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Unread count retrieved", fiber.Map{"unread": count})
}
