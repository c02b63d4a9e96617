package subscriptions

import (
	"errors"

	"github.com/cloudflowhq/cloudflow-backend/internal/billing"
	"github.com/cloudflowhq/cloudflow-backend/internal/dto"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListPlans handles GET /plans. Public within the tenant: no auth required so
// pricing pages can render before signup.
func (h *Handler) ListPlans(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)

	plans, err := h.service.ListPlans(tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch plans",
		})
	}
	return c.JSON(plans)
}

// FeaturedPlan handles GET /plans/featured. No featured plan is not an error
// condition for a pricing page, so the empty case answers 200 with a message.
func (h *Handler) FeaturedPlan(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)

	plan, err := h.service.FeaturedPlan(tenantID)
	if err != nil {
		if errors.Is(err, ErrNoFeaturedPlan) {
			return c.JSON(dto.MessageResponse{Message: "No featured plan available"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch featured plan",
		})
	}
	return c.JSON(plan)
}

func (h *Handler) ListSubscriptions(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	subs, err := h.service.ListSubscriptions(tenantID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch subscriptions",
		})
	}
	return c.JSON(subs)
}

// CurrentSubscription handles GET /subscriptions/current.
func (h *Handler) CurrentSubscription(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	sub, err := h.service.CurrentSubscription(tenantID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "No active subscription",
		})
	}
	return c.JSON(sub)
}

// CreateSubscription handles POST /subscriptions. Processor errors come back
// as 400 with the processor's own message.
func (h *Handler) CreateSubscription(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "plan_id is required",
		})
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Plan not found",
		})
	}

	sub, err := h.service.CreateSubscriptionForUser(tenantID, userID, planID)
	if err != nil {
		var provErr *billing.ProviderError
		switch {
		case errors.Is(err, ErrPlanNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Plan not found",
			})
		case errors.As(err, &provErr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: provErr.Message,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create subscription",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// CancelSubscription handles POST /subscriptions/:id/cancel.
func (h *Handler) CancelSubscription(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	subID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Subscription not found",
		})
	}

	sub, err := h.service.CancelSubscription(tenantID, userID, subID)
	if err != nil {
		var provErr *billing.ProviderError
		switch {
		case errors.Is(err, ErrSubscriptionMissing):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Subscription not found",
			})
		case errors.As(err, &provErr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: provErr.Message,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to cancel subscription",
		})
	}
	return c.JSON(sub)
}

func (h *Handler) ListInvoices(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	invoices, err := h.service.ListInvoices(tenantID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch invoices",
		})
	}
	return c.JSON(invoices)
}

func (h *Handler) ListUsageMetrics(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	metrics, err := h.service.ListUsageMetrics(tenantID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch usage metrics",
		})
	}
	return c.JSON(metrics)
}

// RecordUsage handles POST /usage.
func (h *Handler) RecordUsage(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req RecordUsageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	metric, err := h.service.RecordUsage(tenantID, userID, req.MetricType, req.Value)
	if err != nil {
		if errors.Is(err, ErrNoSubscription) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No active subscription",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(metric)
}

// CurrentMonthUsage handles GET /usage/current_month.
func (h *Handler) CurrentMonthUsage(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	summaries, err := h.service.CurrentMonthUsage(tenantID, userID)
	if err != nil {
		if errors.Is(err, ErrNoSubscription) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No active subscription",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch usage",
		})
	}
	return c.JSON(summaries)
}
