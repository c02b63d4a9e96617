package core

import (
	"errors"
	"log/slog"

	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetOrCreateProfile returns the caller's profile, creating an empty one on
// first access.
func (s *Service) GetOrCreateProfile(tenantID string, userID uuid.UUID) (*UserProfile, error) {
	var profile UserProfile
	err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = UserProfile{
		Base:     models.Base{ID: uuid.New()},
		TenantID: tenantID,
		UserID:   userID,
		Timezone: "UTC",
	}
	if err := s.db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Service) ListProfiles(tenantID string, userID uuid.UUID) ([]UserProfile, error) {
	var profiles []UserProfile
	err := s.db.Scopes(tenant.ForTenant(tenantID)).Where("user_id = ?", userID).Find(&profiles).Error
	return profiles, err
}

func (s *Service) UpdateProfile(tenantID string, userID, profileID uuid.UUID, req *UpdateProfileRequest) (*UserProfile, error) {
	var profile UserProfile
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("id = ? AND user_id = ?", profileID, userID).
		First(&profile).Error; err != nil {
		return nil, ErrProfileNotFound
	}

	updates := map[string]interface{}{}
	if req.PhoneNumber != nil {
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}

	if len(updates) > 0 {
		if err := s.db.Model(&profile).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &profile, nil
}

func (s *Service) ListActivities(tenantID string, userID uuid.UUID, limit, offset int) ([]Activity, int64, error) {
	var activities []Activity
	var total int64

	query := s.db.Model(&Activity{}).Scopes(tenant.ForTenant(tenantID)).Where("user_id = ?", userID)
	query.Count(&total)

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	return activities, total, err
}

// RecordActivity appends an audit entry. Failures are logged and swallowed:
// the trail is a non-critical side effect of the triggering request.
func (s *Service) RecordActivity(tenantID string, userID uuid.UUID, action, description, ip string) {
	activity := Activity{
		Base:        models.Base{ID: uuid.New()},
		TenantID:    tenantID,
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   ip,
	}
	if err := s.db.Create(&activity).Error; err != nil {
		slog.Error("failed to record activity", "tenant_id", tenantID, "action", action, "error", err)
	}
}
