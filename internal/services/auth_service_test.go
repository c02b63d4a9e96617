package services_test

import (
	"testing"
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/dto"
	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/cloudflowhq/cloudflow-backend/internal/services"
	"github.com/cloudflowhq/cloudflow-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingMailer captures outbound messages instead of sending them.
type recordingMailer struct {
	verifications []string
	resets        []string
}

func (m *recordingMailer) SendVerificationEmail(to, token string) error {
	m.verifications = append(m.verifications, token)
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(to, token string) error {
	m.resets = append(m.resets, token)
	return nil
}

func setupAuthService(t *testing.T) (*services.AuthService, *gorm.DB, *recordingMailer) {
	db := testutil.SetupTestDB(t)
	mail := &recordingMailer{}
	svc := services.NewAuthService(db, testutil.TestConfig(), mail)
	return svc, db, mail
}

func TestAuthService_Register(t *testing.T) {
	svc, db, mail := setupAuthService(t)

	t.Run("successful registration", func(t *testing.T) {
		resp, err := svc.Register(testutil.TestTenant, &dto.RegisterRequest{
			Username:  "alice",
			Email:     "alice@example.com",
			Password:  "securepassword",
			FirstName: "Alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "User created successfully. Please check your email for verification.", resp.Message)
		assert.Equal(t, "alice", resp.User.Username)
		assert.NotEmpty(t, resp.Tokens.Access)
		assert.NotEmpty(t, resp.Tokens.Refresh)

		var verification models.EmailVerification
		require.NoError(t, db.Where("user_id = ?", resp.User.ID).First(&verification).Error)
		assert.False(t, verification.IsVerified)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), verification.ExpiresAt, time.Minute)

		require.Len(t, mail.verifications, 1)
		assert.Equal(t, verification.Token, mail.verifications[0])
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(testutil.TestTenant, &dto.RegisterRequest{
			Username: "alice",
			Email:    "other@example.com",
			Password: "securepassword",
		})
		assert.ErrorIs(t, err, services.ErrUsernameTaken)
	})

	t.Run("same username in another tenant", func(t *testing.T) {
		_, err := svc.Register("globex", &dto.RegisterRequest{
			Username: "alice",
			Email:    "alice@globex.example",
			Password: "securepassword",
		})
		assert.NoError(t, err)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(testutil.TestTenant, &dto.RegisterRequest{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		assert.ErrorIs(t, err, services.ErrPasswordTooShort)
	})
}

func TestAuthService_Login(t *testing.T) {
	svc, db, _ := setupAuthService(t)
	testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")

	t.Run("successful login", func(t *testing.T) {
		resp, err := svc.Login(testutil.TestTenant, &dto.LoginRequest{
			Username: "alice",
			Password: testutil.TestPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, "Login successful", resp.Message)
		assert.NotEmpty(t, resp.Tokens.Access)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(testutil.TestTenant, &dto.LoginRequest{
			Username: "alice",
			Password: "wrongpassword",
		})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("wrong tenant", func(t *testing.T) {
		_, err := svc.Login("globex", &dto.LoginRequest{
			Username: "alice",
			Password: testutil.TestPassword,
		})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("deactivated user", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db, testutil.TestTenant, "inactive")
		require.NoError(t, db.Model(user).Update("is_active", false).Error)

		_, err := svc.Login(testutil.TestTenant, &dto.LoginRequest{
			Username: "inactive",
			Password: testutil.TestPassword,
		})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	svc, db, _ := setupAuthService(t)
	testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")

	login, err := svc.Login(testutil.TestTenant, &dto.LoginRequest{
		Username: "alice",
		Password: testutil.TestPassword,
	})
	require.NoError(t, err)

	t.Run("rotation invalidates the used token", func(t *testing.T) {
		resp, err := svc.Refresh(testutil.TestTenant, &dto.RefreshRequest{RefreshToken: login.Tokens.Refresh})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Tokens.Refresh)
		assert.NotEqual(t, login.Tokens.Refresh, resp.Tokens.Refresh)

		_, err = svc.Refresh(testutil.TestTenant, &dto.RefreshRequest{RefreshToken: login.Tokens.Refresh})
		assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Refresh(testutil.TestTenant, &dto.RefreshRequest{RefreshToken: "bogus"})
		assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		fresh, err := svc.Login(testutil.TestTenant, &dto.LoginRequest{
			Username: "alice",
			Password: testutil.TestPassword,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Logout(testutil.TestTenant, &dto.LogoutRequest{RefreshToken: fresh.Tokens.Refresh}))

		_, err = svc.Refresh(testutil.TestTenant, &dto.RefreshRequest{RefreshToken: fresh.Tokens.Refresh})
		assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	svc, db, mail := setupAuthService(t)

	resp, err := svc.Register(testutil.TestTenant, &dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "securepassword",
	})
	require.NoError(t, err)
	require.Len(t, mail.verifications, 1)
	token := mail.verifications[0]

	t.Run("first verification", func(t *testing.T) {
		msg, err := svc.VerifyEmail(testutil.TestTenant, token)
		require.NoError(t, err)
		assert.Equal(t, "Email verified successfully!", msg)
	})

	t.Run("re-verification is a no-op", func(t *testing.T) {
		msg, err := svc.VerifyEmail(testutil.TestTenant, token)
		require.NoError(t, err)
		assert.Equal(t, "Email already verified", msg)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.VerifyEmail(testutil.TestTenant, uuid.NewString())
		assert.ErrorIs(t, err, services.ErrVerificationNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := models.EmailVerification{
			Base:      models.Base{ID: uuid.New()},
			TenantID:  testutil.TestTenant,
			UserID:    resp.User.ID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, db.Create(&expired).Error)

		_, err := svc.VerifyEmail(testutil.TestTenant, expired.Token)
		assert.ErrorIs(t, err, services.ErrVerificationExpired)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	svc, db, mail := setupAuthService(t)
	testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")

	t.Run("unknown email is silent", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(testutil.TestTenant, "nobody@example.com"))
		assert.Empty(t, mail.resets)
	})

	t.Run("full reset flow", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(testutil.TestTenant, "alice@example.com"))
		require.Len(t, mail.resets, 1)
		token := mail.resets[0]

		require.NoError(t, svc.ResetPassword(testutil.TestTenant, token, "brandnewpassword"))

		_, err := svc.Login(testutil.TestTenant, &dto.LoginRequest{
			Username: "alice",
			Password: "brandnewpassword",
		})
		assert.NoError(t, err)

		_, err = svc.Login(testutil.TestTenant, &dto.LoginRequest{
			Username: "alice",
			Password: testutil.TestPassword,
		})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("used token is rejected", func(t *testing.T) {
		err := svc.ResetPassword(testutil.TestTenant, mail.resets[0], "anotherpassword")
		assert.ErrorIs(t, err, services.ErrResetInvalid)
	})

	t.Run("outstanding tokens stay independent", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(testutil.TestTenant, "alice@example.com"))
		require.NoError(t, svc.ForgotPassword(testutil.TestTenant, "alice@example.com"))
		require.Len(t, mail.resets, 3)

		require.NoError(t, svc.ResetPassword(testutil.TestTenant, mail.resets[1], "passwordnumber2"))
		// The sibling token issued alongside is still valid.
		require.NoError(t, svc.ResetPassword(testutil.TestTenant, mail.resets[2], "passwordnumber3"))
	})

	t.Run("short replacement password", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(testutil.TestTenant, "alice@example.com"))
		token := mail.resets[len(mail.resets)-1]

		err := svc.ResetPassword(testutil.TestTenant, token, "short")
		assert.ErrorIs(t, err, services.ErrPasswordTooShort)
	})
}
