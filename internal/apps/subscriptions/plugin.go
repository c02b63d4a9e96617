package subscriptions

import (
	"github.com/cloudflowhq/cloudflow-backend/internal/config"
	"github.com/cloudflowhq/cloudflow-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin wires the billing catalog, subscriptions, invoices and usage.
type Plugin struct {
	service *Service
}

func New(service *Service) *Plugin {
	return &Plugin{service: service}
}

func (p *Plugin) ID() string {
	return "subscriptions"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&SubscriptionPlan{},
		&Subscription{},
		&Invoice{},
		&UsageMetric{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(p.service)

	// The catalog is public so pricing pages work pre-signup.
	router.Get("/plans/featured", handler.FeaturedPlan)
	router.Get("/plans", handler.ListPlans)

	protected := router.Use(middleware.JWTProtected(cfg))
	protected.Get("/subscriptions/current", handler.CurrentSubscription)
	protected.Get("/subscriptions", handler.ListSubscriptions)
	protected.Post("/subscriptions", handler.CreateSubscription)
	protected.Post("/subscriptions/create_subscription", handler.CreateSubscription)
	protected.Post("/subscriptions/:id/cancel", handler.CancelSubscription)
	protected.Get("/invoices", handler.ListInvoices)
	protected.Get("/usage/current_month", handler.CurrentMonthUsage)
	protected.Get("/usage", handler.ListUsageMetrics)
	protected.Post("/usage", handler.RecordUsage)
}
