package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudflowhq/cloudflow-backend/internal/apps/core"
	"github.com/cloudflowhq/cloudflow-backend/internal/dto"
	"github.com/cloudflowhq/cloudflow-backend/internal/handlers"
	"github.com/cloudflowhq/cloudflow-backend/internal/mailer"
	"github.com/cloudflowhq/cloudflow-backend/internal/middleware"
	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/cloudflowhq/cloudflow-backend/internal/services"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/cloudflowhq/cloudflow-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	db := testutil.SetupTestDB(t)

	registry := tenant.NewRegistry()
	registry.Register(&tenant.TenantConfig{
		TenantID: testutil.TestTenant,
		Name:     "Acme Corp",
		Domains:  []string{"acme.cloudflow.app"},
	})

	authService := services.NewAuthService(db, testutil.TestConfig(), &mailer.NoopMailer{})
	handler := handlers.NewAuthHandler(authService, core.NewService(db))

	app := fiber.New()
	app.Use(middleware.TenantMiddleware(registry))

	auth := app.Group("/api/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Get("/verify-email/:token", handler.VerifyEmail)
	auth.Post("/forgot-password", handler.ForgotPassword)
	auth.Post("/reset-password/:token", handler.ResetPassword)

	return app, db
}

func tenantRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testutil.TestTenant)
	return req
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAuthHandler_Register(t *testing.T) {
	app, db := setupAuthApp(t)

	t.Run("successful registration", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/register", map[string]string{
			"username":   "alice",
			"email":      "alice@example.com",
			"password":   "securepassword",
			"first_name": "Alice",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body dto.AuthResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "alice", body.User.Username)
		assert.NotEmpty(t, body.Tokens.Access)
		assert.NotEmpty(t, body.Tokens.Refresh)

		var activity core.Activity
		require.NoError(t, db.Where("user_id = ?", body.User.ID).First(&activity).Error)
		assert.Equal(t, "register", activity.Action)
	})

	t.Run("duplicate username", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/register", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "securepassword",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body dto.ErrorResponse
		decodeBody(t, resp, &body)
		assert.True(t, body.Error)
	})

	t.Run("unknown tenant header", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/register", map[string]string{
			"username": "bob",
			"email":    "bob@example.com",
			"password": "securepassword",
		})
		req.Header.Set("X-Tenant-ID", "initech")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	app, db := setupAuthApp(t)
	testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")

	t.Run("successful login", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/login", map[string]string{
			"username": "alice",
			"password": testutil.TestPassword,
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.AuthResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Login successful", body.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "wrongpassword",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		var body dto.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Invalid credentials", body.Message)
	})
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	app, db := setupAuthApp(t)

	req := tenantRequest(t, "POST", "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "securepassword",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var verification models.EmailVerification
	require.NoError(t, db.First(&verification).Error)

	t.Run("valid token", func(t *testing.T) {
		req := tenantRequest(t, "GET", "/api/auth/verify-email/"+verification.Token, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.MessageResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Email verified successfully!", body.Message)
	})

	t.Run("unknown token", func(t *testing.T) {
		req := tenantRequest(t, "GET", "/api/auth/verify-email/not-a-token", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	app, _ := setupAuthApp(t)

	t.Run("missing email", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/forgot-password", map[string]string{})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body dto.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Email is required", body.Message)
	})

	t.Run("unknown email gets the generic response", func(t *testing.T) {
		req := tenantRequest(t, "POST", "/api/auth/forgot-password", map[string]string{
			"email": "nobody@example.com",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.MessageResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "If the email exists, a reset link has been sent", body.Message)
	})
}
