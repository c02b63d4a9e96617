package dashboard

import (
	"errors"
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrWidgetNotFound  = errors.New("widget not found")
	ErrUserNotFound    = errors.New("user not found")
)

// openStatuses are the statuses a task can be overdue in.
var openStatuses = []string{StatusTodo, StatusInProgress}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// memberProjectIDs is a subquery of project ids the user holds a membership
// row for.
func (s *Service) memberProjectIDs(tenantID string, userID uuid.UUID) *gorm.DB {
	return s.db.Model(&ProjectMember{}).
		Select("project_id").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)
}

// visibleProjects scopes projects to owner-or-member. Everything out of this
// set behaves as if it does not exist: lookups fall through to not-found.
func (s *Service) visibleProjects(tenantID string, userID uuid.UUID) *gorm.DB {
	return s.db.Model(&Project{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("owner_id = ? OR id IN (?)", userID, s.memberProjectIDs(tenantID, userID))
}

// visibleProjectIDs is the id-only form used to scope tasks and comments.
func (s *Service) visibleProjectIDs(tenantID string, userID uuid.UUID) *gorm.DB {
	return s.visibleProjects(tenantID, userID).Select("projects.id")
}

// --- Projects ---

func (s *Service) ListProjects(tenantID string, userID uuid.UUID) ([]Project, error) {
	var projects []Project
	err := s.visibleProjects(tenantID, userID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (s *Service) GetProject(tenantID string, userID, projectID uuid.UUID) (*Project, error) {
	var project Project
	if err := s.visibleProjects(tenantID, userID).
		Where("projects.id = ?", projectID).
		First(&project).Error; err != nil {
		return nil, ErrProjectNotFound
	}
	return &project, nil
}

// CreateProject persists the project and the creator's owner membership in
// one transaction, keeping the at-least-one-owner invariant.
func (s *Service) CreateProject(tenantID string, userID uuid.UUID, req *CreateProjectRequest) (*Project, error) {
	if req.Name == "" {
		return nil, errors.New("project name is required")
	}

	project := Project{
		Base:        models.Base{ID: uuid.New()},
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		Color:       req.Color,
	}
	if project.Color == "" {
		project.Color = "#6366f1"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		member := ProjectMember{
			Base:      models.Base{ID: uuid.New()},
			TenantID:  tenantID,
			ProjectID: project.ID,
			UserID:    userID,
			Role:      RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Service) UpdateProject(tenantID string, userID, projectID uuid.UUID, req *UpdateProjectRequest) (*Project, error) {
	project, err := s.GetProject(tenantID, userID, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return project, nil
}

// DeleteProject removes the project and everything it exclusively owns.
func (s *Service) DeleteProject(tenantID string, userID, projectID uuid.UUID) error {
	project, err := s.GetProject(tenantID, userID, projectID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&Task{}).Select("id").Where("project_id = ?", project.ID)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}

// AddMember upserts the (project, user) membership: an existing row gets its
// role overwritten instead of being duplicated.
func (s *Service) AddMember(tenantID string, callerID, projectID, targetUserID uuid.UUID, role string) (*ProjectMember, error) {
	project, err := s.GetProject(tenantID, callerID, projectID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&user, "id = ?", targetUserID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if role == "" {
		role = RoleMember
	}

	var member ProjectMember
	err = s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("project_id = ? AND user_id = ?", project.ID, user.ID).
		First(&member).Error
	if err == nil {
		if member.Role != role {
			if err := s.db.Model(&member).Update("role", role).Error; err != nil {
				return nil, err
			}
			member.Role = role
		}
		return &member, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member = ProjectMember{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) ProjectStatistics(tenantID string, userID, projectID uuid.UUID) (*ProjectStatistics, error) {
	project, err := s.GetProject(tenantID, userID, projectID)
	if err != nil {
		return nil, err
	}

	stats := &ProjectStatistics{}
	tasks := s.db.Model(&Task{}).Where("project_id = ?", project.ID)

	tasks.Session(&gorm.Session{}).Count(&stats.TotalTasks)
	tasks.Session(&gorm.Session{}).Where("status = ?", StatusDone).Count(&stats.CompletedTasks)
	tasks.Session(&gorm.Session{}).Where("status = ?", StatusInProgress).Count(&stats.InProgressTasks)
	tasks.Session(&gorm.Session{}).Where("due_date < ? AND status IN ?", time.Now(), openStatuses).Count(&stats.OverdueTasks)
	s.db.Model(&ProjectMember{}).Where("project_id = ?", project.ID).Count(&stats.MembersCount)

	return stats, nil
}

// --- Tasks ---

// taskScope filters tasks to those in the caller's visible projects.
func (s *Service) taskScope(tenantID string, userID uuid.UUID) *gorm.DB {
	return s.db.Model(&Task{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("project_id IN (?)", s.visibleProjectIDs(tenantID, userID))
}

func (s *Service) ListTasks(tenantID string, userID uuid.UUID) ([]Task, error) {
	var tasks []Task
	err := s.taskScope(tenantID, userID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (s *Service) GetTask(tenantID string, userID, taskID uuid.UUID) (*Task, error) {
	var task Task
	if err := s.taskScope(tenantID, userID).
		Where("tasks.id = ?", taskID).
		First(&task).Error; err != nil {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// CreateTask stamps the creator; assignees are not required to be project
// members.
func (s *Service) CreateTask(tenantID string, userID uuid.UUID, req *CreateTaskRequest) (*Task, error) {
	if req.Title == "" {
		return nil, errors.New("task title is required")
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, ErrProjectNotFound
	}

	var project Project
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	task := Task{
		Base:        models.Base{ID: uuid.New()},
		TenantID:    tenantID,
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   project.ID,
		CreatorID:   userID,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Status == "" {
		task.Status = StatusTodo
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			return nil, ErrUserNotFound
		}
		task.AssigneeID = &assigneeID
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Service) UpdateTask(tenantID string, userID, taskID uuid.UUID, req *UpdateTaskRequest) (*Task, error) {
	task, err := s.GetTask(tenantID, userID, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			updates["assignee_id"] = nil
		} else {
			assigneeID, err := uuid.Parse(*req.AssigneeID)
			if err != nil {
				return nil, ErrUserNotFound
			}
			updates["assignee_id"] = assigneeID
		}
	}
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == StatusDone && task.CompletedAt == nil {
			now := time.Now()
			updates["completed_at"] = &now
		} else if *req.Status != StatusDone {
			updates["completed_at"] = nil
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *Service) DeleteTask(tenantID string, userID, taskID uuid.UUID) error {
	task, err := s.GetTask(tenantID, userID, taskID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(task).Error
	})
}

// MyTasks returns visible-project tasks assigned to the caller.
func (s *Service) MyTasks(tenantID string, userID uuid.UUID) ([]Task, error) {
	var tasks []Task
	err := s.taskScope(tenantID, userID).
		Where("assignee_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// OverdueTasks returns visible-project tasks past their due date that are
// still open (todo or in_progress).
func (s *Service) OverdueTasks(tenantID string, userID uuid.UUID) ([]Task, error) {
	var tasks []Task
	err := s.taskScope(tenantID, userID).
		Where("due_date < ? AND status IN ?", time.Now(), openStatuses).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// --- Comments ---

// commentScope mirrors task visibility through the comment's task's project.
func (s *Service) commentScope(tenantID string, userID uuid.UUID) *gorm.DB {
	taskIDs := s.taskScope(tenantID, userID).Select("tasks.id")
	return s.db.Model(&Comment{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("task_id IN (?)", taskIDs)
}

func (s *Service) ListComments(tenantID string, userID uuid.UUID) ([]Comment, error) {
	var comments []Comment
	err := s.commentScope(tenantID, userID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Service) GetComment(tenantID string, userID, commentID uuid.UUID) (*Comment, error) {
	var comment Comment
	if err := s.commentScope(tenantID, userID).
		Where("comments.id = ?", commentID).
		First(&comment).Error; err != nil {
		return nil, ErrCommentNotFound
	}
	return &comment, nil
}

func (s *Service) CreateComment(tenantID string, userID uuid.UUID, req *CreateCommentRequest) (*Comment, error) {
	if req.Content == "" {
		return nil, errors.New("comment content is required")
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	var task Task
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&task, "id = ?", taskID).Error; err != nil {
		return nil, ErrTaskNotFound
	}

	comment := Comment{
		Base:     models.Base{ID: uuid.New()},
		TenantID: tenantID,
		TaskID:   task.ID,
		AuthorID: userID,
		Content:  req.Content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Service) UpdateComment(tenantID string, userID, commentID uuid.UUID, req *UpdateCommentRequest) (*Comment, error) {
	comment, err := s.GetComment(tenantID, userID, commentID)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		if err := s.db.Model(comment).Update("content", *req.Content).Error; err != nil {
			return nil, err
		}
	}
	return comment, nil
}

func (s *Service) DeleteComment(tenantID string, userID, commentID uuid.UUID) error {
	comment, err := s.GetComment(tenantID, userID, commentID)
	if err != nil {
		return err
	}
	return s.db.Delete(comment).Error
}

// --- Widgets ---

func (s *Service) ListWidgets(tenantID string, userID uuid.UUID) ([]DashboardWidget, error) {
	var widgets []DashboardWidget
	err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("user_id = ?", userID).
		Order("position_y, position_x").
		Find(&widgets).Error
	return widgets, err
}

func (s *Service) CreateWidget(tenantID string, userID uuid.UUID, req *CreateWidgetRequest) (*DashboardWidget, error) {
	if req.WidgetType == "" {
		return nil, errors.New("widget type is required")
	}

	widget := DashboardWidget{
		Base:          models.Base{ID: uuid.New()},
		TenantID:      tenantID,
		UserID:        userID,
		WidgetType:    req.WidgetType,
		Title:         req.Title,
		Configuration: req.Configuration,
		PositionX:     req.PositionX,
		PositionY:     req.PositionY,
		Width:         req.Width,
		Height:        req.Height,
	}
	if widget.Width == 0 {
		widget.Width = 4
	}
	if widget.Height == 0 {
		widget.Height = 4
	}
	if err := s.db.Create(&widget).Error; err != nil {
		return nil, err
	}
	return &widget, nil
}

func (s *Service) GetWidget(tenantID string, userID, widgetID uuid.UUID) (*DashboardWidget, error) {
	var widget DashboardWidget
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("id = ? AND user_id = ?", widgetID, userID).
		First(&widget).Error; err != nil {
		return nil, ErrWidgetNotFound
	}
	return &widget, nil
}

func (s *Service) UpdateWidget(tenantID string, userID, widgetID uuid.UUID, req *UpdateWidgetRequest) (*DashboardWidget, error) {
	widget, err := s.GetWidget(tenantID, userID, widgetID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.WidgetType != nil {
		updates["widget_type"] = *req.WidgetType
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Configuration != nil {
		updates["configuration"] = req.Configuration
	}
	if req.PositionX != nil {
		updates["position_x"] = *req.PositionX
	}
	if req.PositionY != nil {
		updates["position_y"] = *req.PositionY
	}
	if req.Width != nil {
		updates["width"] = *req.Width
	}
	if req.Height != nil {
		updates["height"] = *req.Height
	}

	if len(updates) > 0 {
		if err := s.db.Model(widget).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return widget, nil
}

func (s *Service) DeleteWidget(tenantID string, userID, widgetID uuid.UUID) error {
	widget, err := s.GetWidget(tenantID, userID, widgetID)
	if err != nil {
		return err
	}
	return s.db.Delete(widget).Error
}

// --- Aggregation ---

// DashboardData computes the caller's dashboard snapshot. Project counts run
// over the visible set, task counts over the assigned subset, and the 7-day
// window and status histogram over all tasks in visible projects.
func (s *Service) DashboardData(tenantID string, userID uuid.UUID) (*DashboardData, error) {
	data := &DashboardData{TaskDistribution: []StatusCount{}}
	now := time.Now()
	lastWeek := now.AddDate(0, 0, -7)

	if err := s.visibleProjects(tenantID, userID).Count(&data.Projects.Total).Error; err != nil {
		return nil, err
	}
	if err := s.visibleProjects(tenantID, userID).
		Where("is_archived = ?", false).
		Count(&data.Projects.Active).Error; err != nil {
		return nil, err
	}

	assigned := func() *gorm.DB {
		return s.taskScope(tenantID, userID).Where("assignee_id = ?", userID)
	}
	if err := assigned().Count(&data.Tasks.Total).Error; err != nil {
		return nil, err
	}
	if err := assigned().Where("status = ?", StatusDone).Count(&data.Tasks.Completed).Error; err != nil {
		return nil, err
	}
	if err := assigned().Where("status = ?", StatusInProgress).Count(&data.Tasks.InProgress).Error; err != nil {
		return nil, err
	}
	if err := assigned().Where("due_date < ? AND status IN ?", now, openStatuses).Count(&data.Tasks.Overdue).Error; err != nil {
		return nil, err
	}

	if err := s.taskScope(tenantID, userID).
		Where("tasks.created_at >= ?", lastWeek).
		Count(&data.RecentActivity.NewTasks).Error; err != nil {
		return nil, err
	}
	if err := s.commentScope(tenantID, userID).
		Where("comments.created_at >= ?", lastWeek).
		Count(&data.RecentActivity.NewComments).Error; err != nil {
		return nil, err
	}

	if err := s.taskScope(tenantID, userID).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&data.TaskDistribution).Error; err != nil {
		return nil, err
	}

	return data, nil
}
