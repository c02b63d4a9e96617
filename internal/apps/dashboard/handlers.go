package dashboard

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

// ident extracts the tenant and caller from the request context.
func ident(c *fiber.Ctx) (string, uuid.UUID, error) {
	tenantID := tenant.GetTenantID(c)
	userID, err := tenant.GetUserID(c)
	return tenantID, userID, err
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

// --- Projects ---

func (h *Handler) ListProjects(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	projects, err := h.service.ListProjects(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to fetch projects")
	}
	return c.JSON(projects)
}

func (h *Handler) GetProject(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Project not found")
	}

	project, err := h.service.GetProject(tenantID, userID, projectID)
	if err != nil {
		return notFound(c, "Project not found")
	}
	return c.JSON(project)
}

func (h *Handler) CreateProject(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	project, err := h.service.CreateProject(tenantID, userID, &req)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return notFound(c, "Project not found")
		}
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *Handler) UpdateProject(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Project not found")
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	project, err := h.service.UpdateProject(tenantID, userID, projectID, &req)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return notFound(c, "Project not found")
		}
		return internalError(c, "Failed to update project")
	}
	return c.JSON(project)
}

func (h *Handler) DeleteProject(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Project not found")
	}

	if err := h.service.DeleteProject(tenantID, userID, projectID); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return notFound(c, "Project not found")
		}
		return internalError(c, "Failed to delete project")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddMember handles POST /projects/:id/add_member.
func (h *Handler) AddMember(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Project not found")
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.UserID == "" {
		return badRequest(c, "user_id is required")
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		return notFound(c, "User not found")
	}

	member, err := h.service.AddMember(tenantID, userID, projectID, targetID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			return notFound(c, "Project not found")
		case errors.Is(err, ErrUserNotFound):
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to add member")
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// Statistics handles GET /projects/:id/statistics.
func (h *Handler) Statistics(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Project not found")
	}

	stats, err := h.service.ProjectStatistics(tenantID, userID, projectID)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return notFound(c, "Project not found")
		}
		return internalError(c, "Failed to compute statistics")
	}
	return c.JSON(stats)
}

// --- Tasks ---

func (h *Handler) ListTasks(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	tasks, err := h.service.ListTasks(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to fetch tasks")
	}
	return c.JSON(tasks)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Task not found")
	}

	task, err := h.service.GetTask(tenantID, userID, taskID)
	if err != nil {
		return notFound(c, "Task not found")
	}
	return c.JSON(task)
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.service.CreateTask(tenantID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			return notFound(c, "Project not found")
		case errors.Is(err, ErrUserNotFound):
			return notFound(c, "User not found")
		}
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Task not found")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.service.UpdateTask(tenantID, userID, taskID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTaskNotFound):
			return notFound(c, "Task not found")
		case errors.Is(err, ErrUserNotFound):
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to update task")
	}
	return c.JSON(task)
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Task not found")
	}

	if err := h.service.DeleteTask(tenantID, userID, taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return notFound(c, "Task not found")
		}
		return internalError(c, "Failed to delete task")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MyTasks handles GET /tasks/my_tasks.
func (h *Handler) MyTasks(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	tasks, err := h.service.MyTasks(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to fetch tasks")
	}
	return c.JSON(tasks)
}

// OverdueTasks handles GET /tasks/overdue.
func (h *Handler) OverdueTasks(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	tasks, err := h.service.OverdueTasks(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to fetch tasks")
	}
	return c.JSON(tasks)
}

// --- Comments ---

func (h *Handler) ListComments(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	comments, err := h.service.ListComments(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to fetch comments")
	}
	return c.JSON(comments)
}

func (h *Handler) CreateComment(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.service.CreateComment(tenantID, userID, &req)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return notFound(c, "Task not found")
		}
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *Handler) GetComment(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Comment not found")
	}

	comment, err := h.service.GetComment(tenantID, userID, commentID)
	if err != nil {
		return notFound(c, "Comment not found")
	}
	return c.JSON(comment)
}

func (h *Handler) UpdateComment(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Comment not found")
	}

	var req UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.service.UpdateComment(tenantID, userID, commentID, &req)
	if err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			return notFound(c, "Comment not found")
		}
		return internalError(c, "Failed to update comment")
	}
	return c.JSON(comment)
}

func (h *Handler) DeleteComment(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Comment not found")
	}

	if err := h.service.DeleteComment(tenantID, userID, commentID); err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			return notFound(c, "Comment not found")
		}
		return internalError(c, "Failed to delete comment")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Widgets ---

func (h *Handler) ListWidgets(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	widgets, err := h.service.ListWidgets(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to fetch widgets")
	}
	return c.JSON(widgets)
}

func (h *Handler) CreateWidget(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateWidgetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	widget, err := h.service.CreateWidget(tenantID, userID, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(widget)
}

func (h *Handler) GetWidget(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	widgetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Widget not found")
	}

	widget, err := h.service.GetWidget(tenantID, userID, widgetID)
	if err != nil {
		return notFound(c, "Widget not found")
	}
	return c.JSON(widget)
}

func (h *Handler) UpdateWidget(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	widgetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Widget not found")
	}

	var req UpdateWidgetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	widget, err := h.service.UpdateWidget(tenantID, userID, widgetID, &req)
	if err != nil {
		if errors.Is(err, ErrWidgetNotFound) {
			return notFound(c, "Widget not found")
		}
		return internalError(c, "Failed to update widget")
	}
	return c.JSON(widget)
}

func (h *Handler) DeleteWidget(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}
	widgetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Widget not found")
	}

	if err := h.service.DeleteWidget(tenantID, userID, widgetID); err != nil {
		if errors.Is(err, ErrWidgetNotFound) {
			return notFound(c, "Widget not found")
		}
		return internalError(c, "Failed to delete widget")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DashboardData handles GET /widgets/dashboard_data.
func (h *Handler) DashboardData(c *fiber.Ctx) error {
	tenantID, userID, err := ident(c)
	if err != nil {
		return unauthorized(c)
	}

	data, err := h.service.DashboardData(tenantID, userID)
	if err != nil {
		return internalError(c, "Failed to compute dashboard data")
	}
	return c.JSON(data)
}
