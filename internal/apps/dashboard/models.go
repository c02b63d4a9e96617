package dashboard

import (
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Project struct {
	models.Base
	TenantID    string      `gorm:"size:50;not null;index" json:"-"`
	Name        string      `gorm:"size:200;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	OwnerID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"owner_id"`
	Color       string      `gorm:"size:7;default:'#6366f1'" json:"color"`
	IsArchived  bool        `gorm:"default:false" json:"is_archived"`
	Owner       models.User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectMember links a user to a project with a role. One row per
// (project, user); adding an existing member overwrites the role.
type ProjectMember struct {
	models.Base
	TenantID  string      `gorm:"size:50;not null;index;uniqueIndex:idx_members_project_user" json:"-"`
	ProjectID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_members_project_user" json:"project_id"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_members_project_user;index" json:"user_id"`
	Role      string      `gorm:"size:20;default:'member'" json:"role"`
	Project   Project     `gorm:"foreignKey:ProjectID" json:"-"`
	User      models.User `gorm:"foreignKey:UserID" json:"-"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

type Task struct {
	models.Base
	TenantID    string     `gorm:"size:50;not null;index" json:"-"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id"`
	CreatorID   uuid.UUID  `gorm:"type:uuid;not null" json:"creator_id"`
	Priority    string     `gorm:"size:20;default:'medium'" json:"priority"`
	Status      string     `gorm:"size:20;default:'todo'" json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	Project     Project    `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

type Comment struct {
	models.Base
	TenantID string      `gorm:"size:50;not null;index" json:"-"`
	TaskID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"task_id"`
	AuthorID uuid.UUID   `gorm:"type:uuid;not null" json:"author_id"`
	Content  string      `gorm:"type:text;not null" json:"content"`
	Task     Task        `gorm:"foreignKey:TaskID" json:"-"`
	Author   models.User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// DashboardWidget is a user-scoped dashboard tile layout entry.
type DashboardWidget struct {
	models.Base
	TenantID      string         `gorm:"size:50;not null;index" json:"-"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	WidgetType    string         `gorm:"size:50;not null" json:"widget_type"`
	Title         string         `gorm:"size:100" json:"title"`
	Configuration datatypes.JSON `gorm:"default:'{}'" json:"configuration"`
	PositionX     int            `gorm:"default:0" json:"position_x"`
	PositionY     int            `gorm:"default:0" json:"position_y"`
	Width         int            `gorm:"default:4" json:"width"`
	Height        int            `gorm:"default:4" json:"height"`
}

func (DashboardWidget) TableName() string {
	return "dashboard_widgets"
}

// --- DTOs ---

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsArchived  *bool   `json:"is_archived"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"project_id"`
	AssigneeID  *string    `json:"assignee_id"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *string    `json:"assignee_id"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

type CreateCommentRequest struct {
	TaskID  string `json:"task_id"`
	Content string `json:"content"`
}

type UpdateCommentRequest struct {
	Content *string `json:"content"`
}

type CreateWidgetRequest struct {
	WidgetType    string         `json:"widget_type"`
	Title         string         `json:"title"`
	Configuration datatypes.JSON `json:"configuration"`
	PositionX     int            `json:"position_x"`
	PositionY     int            `json:"position_y"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
}

type UpdateWidgetRequest struct {
	WidgetType    *string        `json:"widget_type"`
	Title         *string        `json:"title"`
	Configuration datatypes.JSON `json:"configuration"`
	PositionX     *int           `json:"position_x"`
	PositionY     *int           `json:"position_y"`
	Width         *int           `json:"width"`
	Height        *int           `json:"height"`
}

// ProjectStatistics is the per-project summary for callers already authorized
// to view the project.
type ProjectStatistics struct {
	TotalTasks      int64 `json:"total_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	OverdueTasks    int64 `json:"overdue_tasks"`
	MembersCount    int64 `json:"members_count"`
}

// DashboardData mixes three scoping rules on purpose: project counts over the
// visible set, task counts over the caller's assigned subset, and
// recent-activity/distribution over all tasks in visible projects.
type DashboardData struct {
	Projects struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"projects"`
	Tasks struct {
		Total      int64 `json:"total"`
		Completed  int64 `json:"completed"`
		InProgress int64 `json:"in_progress"`
		Overdue    int64 `json:"overdue"`
	} `json:"tasks"`
	RecentActivity struct {
		NewTasks    int64 `json:"new_tasks"`
		NewComments int64 `json:"new_comments"`
	} `json:"recent_activity"`
	TaskDistribution []StatusCount `json:"task_distribution"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
