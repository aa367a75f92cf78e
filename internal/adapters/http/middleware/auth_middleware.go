package middleware

import (
	"strings"

	"equipahub/internal/config"
	"equipahub/internal/core/domain"
	"equipahub/internal/pkg/jwt"
	"equipahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		role := domain.Role(claims.Role)
		if !role.Valid() {
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set user info in context
		c.Locals("userID", claims.UserID)
		c.Locals("name", claims.Name)
		c.Locals("email", claims.Email)
		c.Locals("role", role)

		return c.Next()
	}
}

// Actor extracts the authenticated actor from the request context.
// Returns ok=false when AuthMiddleware did not run.
func Actor(c *fiber.Ctx) (domain.Actor, bool) {
	userID, okID := c.Locals("userID").(uint)
	role, okRole := c.Locals("role").(domain.Role)
	if !okID || !okRole {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: userID, Role: role}, true
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(domain.Role)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// TechnicianOnly middleware allows only the technician role
func TechnicianOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleTechnician)
}

// CoordinatorOnly middleware allows only the coordinator role
func CoordinatorOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleCoordinator)
}

// Staff middleware allows the desk and admin roles
func Staff() fiber.Handler {
	return RoleMiddleware(domain.RoleTechnician, domain.RoleSecretary, domain.RoleCoordinator)
}
