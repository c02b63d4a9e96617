package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/config"
	"github.com/cloudflowhq/cloudflow-backend/internal/dto"
	"github.com/cloudflowhq/cloudflow-backend/internal/mailer"
	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("Invalid credentials")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrVerificationNotFound = errors.New("Invalid verification token")
	ErrVerificationExpired  = errors.New("Verification token has expired")
	ErrResetInvalid         = errors.New("Reset token is invalid or expired")
	ErrPasswordTooShort     = errors.New("Password must be at least 8 characters long")
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer mailer.Mailer
}

func NewAuthService(db *gorm.DB, cfg *config.Config, m mailer.Mailer) *AuthService {
	return &AuthService{db: db, cfg: cfg, mailer: m}
}

func (s *AuthService) Register(tenantID string, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Username == "" || req.Email == "" {
		return nil, errors.New("username and email are required")
	}
	if len(req.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	var existing models.User
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hash),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verification := models.EmailVerification{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.cfg.EmailVerificationExpiry),
	}
	if err := s.db.Create(&verification).Error; err != nil {
		return nil, fmt.Errorf("failed to create email verification: %w", err)
	}

	// Delivery failure must not fail registration.
	if err := s.mailer.SendVerificationEmail(user.Email, verification.Token); err != nil {
		slog.Error("verification email dispatch failed", "tenant_id", tenantID, "user_id", user.ID.String(), "error", err)
	}

	resp, err := s.generateTokenPair(tenantID, &user)
	if err != nil {
		return nil, err
	}
	resp.Message = "User created successfully. Please check your email for verification."
	return resp, nil
}

func (s *AuthService) Login(tenantID string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("username = ? AND is_active = ?", req.Username, true).
		First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.generateTokenPair(tenantID, &user)
	if err != nil {
		return nil, err
	}
	resp.Message = "Login successful"
	return resp, nil
}

func (s *AuthService) Refresh(tenantID string, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidRefreshToken
	}

	// Rotation: a refresh token is single-use.
	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(tenantID, &user)
}

func (s *AuthService) Logout(tenantID string, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

// VerifyEmail consumes a verification token. Re-verifying an already-verified
// token succeeds as a no-op with a distinct message.
func (s *AuthService) VerifyEmail(tenantID, token string) (string, error) {
	var verification models.EmailVerification
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("token = ?", token).First(&verification).Error; err != nil {
		return "", ErrVerificationNotFound
	}

	if verification.IsExpired() {
		return "", ErrVerificationExpired
	}

	if verification.IsVerified {
		return "Email already verified", nil
	}

	if err := s.db.Model(&verification).Update("is_verified", true).Error; err != nil {
		return "", fmt.Errorf("failed to mark verification: %w", err)
	}
	return "Email verified successfully!", nil
}

// ForgotPassword issues a reset token when the account exists. The caller
// always receives the same success-shaped response to prevent account
// enumeration.
func (s *AuthService) ForgotPassword(tenantID, email string) error {
	var user models.User
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("email = ?", email).First(&user).Error; err != nil {
		return nil
	}

	reset := models.PasswordReset{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.cfg.PasswordResetExpiry),
	}
	if err := s.db.Create(&reset).Error; err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, reset.Token); err != nil {
		slog.Error("password reset email dispatch failed", "tenant_id", tenantID, "user_id", user.ID.String(), "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token. Other outstanding tokens for the same
// user stay valid.
func (s *AuthService) ResetPassword(tenantID, token, newPassword string) error {
	var reset models.PasswordReset
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("token = ?", token).First(&reset).Error; err != nil {
		return ErrResetInvalid
	}

	if reset.IsExpired() || reset.IsUsed {
		return ErrResetInvalid
	}

	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(&models.User{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("id = ?", reset.UserID).
		Update("password", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.db.Model(&reset).Update("is_used", true).Error
}

func (s *AuthService) generateTokenPair(tenantID string, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(tenantID, user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(tenantID, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User: dto.UserResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
		Tokens: dto.TokenPair{
			Access:  accessToken,
			Refresh: refreshToken,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(tenantID string, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":       user.ID.String(),
		"username":  user.Username,
		"email":     user.Email,
		"tenant_id": tenantID,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(tenantID string, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		Base:      models.Base{ID: uuid.New()},
		TenantID:  tenantID,
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
