package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerification is a one-time token consulted by token lookup. A user may
// accumulate several outstanding verifications; issuing a new one never
// invalidates prior ones.
type EmailVerification struct {
	Base
	TenantID   string    `gorm:"size:50;not null;index" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Token      string    `gorm:"size:100;not null;index" json:"-"`
	IsVerified bool      `gorm:"default:false" json:"is_verified"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
}

func (v *EmailVerification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// PasswordReset is consumed exactly once; expiry is derived, not stored.
type PasswordReset struct {
	Base
	TenantID  string    `gorm:"size:50;not null;index" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"size:100;not null;index" json:"-"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

func (r *PasswordReset) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
