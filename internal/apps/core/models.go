package core

import (
	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/google/uuid"
)

// UserProfile extends the account with contact/company details. One per user,
// created lazily on first access.
type UserProfile struct {
	models.Base
	TenantID    string      `gorm:"size:50;not null;index" json:"-"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	PhoneNumber string      `gorm:"size:20" json:"phone_number"`
	Company     string      `gorm:"size:100" json:"company"`
	Position    string      `gorm:"size:100" json:"position"`
	AvatarURL   string      `gorm:"type:text" json:"avatar_url"`
	Timezone    string      `gorm:"size:50;default:'UTC'" json:"timezone"`
	User        models.User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// Activity is an append-only audit trail entry, visible only to its owner.
type Activity struct {
	models.Base
	TenantID    string      `gorm:"size:50;not null;index" json:"-"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Action      string      `gorm:"size:100;not null" json:"action"`
	Description string      `gorm:"type:text" json:"description"`
	IPAddress   string      `gorm:"size:45" json:"ip_address"`
	User        models.User `gorm:"foreignKey:UserID" json:"-"`
}

func (Activity) TableName() string {
	return "activities"
}

// --- DTOs ---

type UpdateProfileRequest struct {
	PhoneNumber *string `json:"phone_number"`
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	AvatarURL   *string `json:"avatar_url"`
	Timezone    *string `json:"timezone"`
}

type ActivityListResponse struct {
	Activities []Activity `json:"activities"`
	Total      int64      `json:"total"`
}
