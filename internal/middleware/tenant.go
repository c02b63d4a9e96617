package middleware

import (
	"strings"

	"github.com/cloudflowhq/cloudflow-backend/internal/dto"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Paths that don't require tenant identification.
var tenantSkipPaths = []string{
	"/api/health",
}

// TenantMiddleware resolves the tenant from JWT claims, the X-Tenant-ID
// header, or the request host's domain mapping, in that order.
func TenantMiddleware(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		for _, skip := range tenantSkipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		// 1. Try JWT claim (already authenticated)
		if token, ok := c.Locals("user").(*jwt.Token); ok {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if tenantID, ok := claims["tenant_id"].(string); ok && tenantID != "" {
					c.Locals("tenant_id", tenantID)
					return c.Next()
				}
			}
		}

		// 2. Try X-Tenant-ID header
		tenantID := c.Get("X-Tenant-ID")
		if tenantID != "" {
			if !registry.Exists(tenantID) {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Invalid X-Tenant-ID: " + tenantID,
				})
			}
			c.Locals("tenant_id", tenantID)
			return c.Next()
		}

		// 3. Try the request host's domain mapping
		if tenantID := registry.ResolveDomain(c.Hostname()); tenantID != "" {
			c.Locals("tenant_id", tenantID)
			return c.Next()
		}

		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "X-Tenant-ID header is required",
		})
	}
}
