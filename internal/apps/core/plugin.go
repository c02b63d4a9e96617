package core

import (
	"github.com/cloudflowhq/cloudflow-backend/internal/config"
	"github.com/cloudflowhq/cloudflow-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin wires user profiles and the activity trail.
type Plugin struct {
	service *Service
}

func New(service *Service) *Plugin {
	return &Plugin{service: service}
}

func (p *Plugin) ID() string {
	return "core"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&UserProfile{},
		&Activity{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(p.service)

	protected := router.Use(middleware.JWTProtected(cfg))
	protected.Get("/profiles", handler.ListProfiles)
	protected.Get("/profiles/me", handler.Me)
	protected.Put("/profiles/:id", handler.UpdateProfile)
	protected.Get("/activities", handler.ListActivities)
}
