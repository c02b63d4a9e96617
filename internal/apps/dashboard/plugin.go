package dashboard

import (
	"github.com/cloudflowhq/cloudflow-backend/internal/config"
	"github.com/cloudflowhq/cloudflow-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin wires projects, tasks, comments and dashboard widgets.
type Plugin struct {
	service *Service
}

func New(service *Service) *Plugin {
	return &Plugin{service: service}
}

func (p *Plugin) ID() string {
	return "dashboard"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Project{},
		&ProjectMember{},
		&Task{},
		&Comment{},
		&DashboardWidget{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(p.service)

	protected := router.Use(middleware.JWTProtected(cfg))

	protected.Get("/projects", handler.ListProjects)
	protected.Post("/projects", handler.CreateProject)
	protected.Get("/projects/:id", handler.GetProject)
	protected.Put("/projects/:id", handler.UpdateProject)
	protected.Delete("/projects/:id", handler.DeleteProject)
	protected.Post("/projects/:id/add_member", handler.AddMember)
	protected.Get("/projects/:id/statistics", handler.Statistics)

	// Fixed paths before :id so my_tasks and overdue are not swallowed.
	protected.Get("/tasks/my_tasks", handler.MyTasks)
	protected.Get("/tasks/overdue", handler.OverdueTasks)
	protected.Get("/tasks", handler.ListTasks)
	protected.Post("/tasks", handler.CreateTask)
	protected.Get("/tasks/:id", handler.GetTask)
	protected.Put("/tasks/:id", handler.UpdateTask)
	protected.Delete("/tasks/:id", handler.DeleteTask)

	protected.Get("/comments", handler.ListComments)
	protected.Post("/comments", handler.CreateComment)
	protected.Get("/comments/:id", handler.GetComment)
	protected.Put("/comments/:id", handler.UpdateComment)
	protected.Delete("/comments/:id", handler.DeleteComment)

	protected.Get("/widgets/dashboard_data", handler.DashboardData)
	protected.Get("/widgets", handler.ListWidgets)
	protected.Post("/widgets", handler.CreateWidget)
	protected.Get("/widgets/:id", handler.GetWidget)
	protected.Put("/widgets/:id", handler.UpdateWidget)
	protected.Delete("/widgets/:id", handler.DeleteWidget)
}
