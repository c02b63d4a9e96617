package core

import (
	"errors"

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

// ListProfiles handles GET /profiles - the caller only ever sees their own.
func (h *Handler) ListProfiles(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	profiles, err := h.service.ListProfiles(tenantID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch profiles",
		})
	}
	return c.JSON(profiles)
}

// Me handles GET /profiles/me - get-or-create the caller's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	profile, err := h.service.GetOrCreateProfile(tenantID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch profile",
		})
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /profiles/:id.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	profileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid profile ID",
		})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	profile, err := h.service.UpdateProfile(tenantID, userID, profileID, &req)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update profile",
		})
	}
	return c.JSON(profile)
}

// ListActivities handles GET /activities - read-only, self-scoped.
func (h *Handler) ListActivities(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	activities, total, err := h.service.ListActivities(tenantID, userID, limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch activities",
		})
	}

	return c.JSON(ActivityListResponse{Activities: activities, Total: total})
}
