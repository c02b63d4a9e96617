package apps

import (
	"github.com/cloudflowhq/cloudflow-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin defines the interface every feature module must implement.
type Plugin interface {
	// ID returns the module identifier; routes mount under /api/<id>.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts module routes on the given Fiber group. The group
	// is prefixed with /api/<id>; modules apply JWT middleware themselves so
	// they can expose public routes.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
