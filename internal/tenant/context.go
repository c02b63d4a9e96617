package tenant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GetTenantID extracts the tenant_id from Fiber context locals, falling back
// to the JWT claim when the tenant middleware ran before authentication.
func GetTenantID(c *fiber.Ctx) string {
	if tenantID, ok := c.Locals("tenant_id").(string); ok && tenantID != "" {
		return tenantID
	}
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if tenantID, ok := claims["tenant_id"].(string); ok {
				return tenantID
			}
		}
	}
	return ""
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}
