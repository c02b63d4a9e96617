package testutil

import (
	"testing"
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/apps/core"
	"github.com/cloudflowhq/cloudflow-backend/internal/apps/dashboard"
	"github.com/cloudflowhq/cloudflow-backend/internal/apps/subscriptions"
	"github.com/cloudflowhq/cloudflow-backend/internal/config"
	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestTenant is the tenant id fixtures default to.
const TestTenant = "acme"

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "testpassword123"

// SetupTestDB creates an in-memory SQLite database with all models migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.EmailVerification{},
		&models.PasswordReset{},
		&models.SystemLog{},
		&core.UserProfile{},
		&core.Activity{},
		&dashboard.Project{},
		&dashboard.ProjectMember{},
		&dashboard.Task{},
		&dashboard.Comment{},
		&dashboard.DashboardWidget{},
		&subscriptions.SubscriptionPlan{},
		&subscriptions.Subscription{},
		&subscriptions.Invoice{},
		&subscriptions.UsageMetric{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// TestConfig returns a config with deterministic secrets and short expiries.
func TestConfig() *config.Config {
	return &config.Config{
		JWTSecret:               "test-secret-key-for-testing",
		JWTAccessExpiry:         15 * time.Minute,
		JWTRefreshExpiry:        168 * time.Hour,
		EmailVerificationExpiry: 24 * time.Hour,
		PasswordResetExpiry:     time.Hour,
		BaseURL:                 "http://localhost:8080",
	}
}

// CreateTestUser persists a user in the given tenant with TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, tenantID, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		Username:  username,
		Email:     username + "@example.com",
		Password:  string(hash),
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProject persists a project plus its owner membership row, the
// same shape the service produces.
func CreateTestProject(t *testing.T, db *gorm.DB, tenantID string, ownerID uuid.UUID, name string) *dashboard.Project {
	t.Helper()

	project := &dashboard.Project{
		Base:     models.Base{ID: uuid.New()},
		TenantID: tenantID,
		Name:     name,
		OwnerID:  ownerID,
		Color:    "#6366f1",
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	member := &dashboard.ProjectMember{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		ProjectID: project.ID,
		UserID:    ownerID,
		Role:      dashboard.RoleOwner,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}
	return project
}

// CreateTestTask persists a task in the project.
func CreateTestTask(t *testing.T, db *gorm.DB, tenantID string, projectID, creatorID uuid.UUID, title, status string) *dashboard.Task {
	t.Helper()

	task := &dashboard.Task{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		Title:     title,
		ProjectID: projectID,
		CreatorID: creatorID,
		Priority:  dashboard.PriorityMedium,
		Status:    status,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateTestPlan persists an active catalog entry.
func CreateTestPlan(t *testing.T, db *gorm.DB, tenantID, name, planType string, price float64) *subscriptions.SubscriptionPlan {
	t.Helper()

	plan := &subscriptions.SubscriptionPlan{
		Base:          models.Base{ID: uuid.New()},
		TenantID:      tenantID,
		Name:          name,
		PlanType:      planType,
		Price:         price,
		BillingPeriod: "monthly",
		MaxUsers:      5,
		MaxStorageGB:  10,
		Features:      datatypes.JSON(`[]`),
		StripePriceID: "price_" + uuid.NewString()[:8],
		IsActive:      true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}
	return plan
}
