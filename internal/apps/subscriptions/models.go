package subscriptions

import (
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Plan tiers.
const (
	PlanFree         = "free"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Subscription statuses.
const (
	SubActive   = "active"
	SubCanceled = "canceled"
	SubPastDue  = "past_due"
	SubUnpaid   = "unpaid"
)

// Invoice statuses.
const (
	InvoiceDraft         = "draft"
	InvoiceOpen          = "open"
	InvoicePaid          = "paid"
	InvoiceVoid          = "void"
	InvoiceUncollectible = "uncollectible"
)

// SubscriptionPlan is a tenant-curated catalog entry. Prices are stored as
// numeric(10,2).
type SubscriptionPlan struct {
	models.Base
	TenantID      string         `gorm:"size:50;not null;index" json:"-"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	PlanType      string         `gorm:"size:20;not null" json:"plan_type"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"type:numeric(10,2);not null" json:"price"`
	BillingPeriod string         `gorm:"size:20;default:'monthly'" json:"billing_period"`
	MaxUsers      int            `gorm:"default:5" json:"max_users"`
	MaxStorageGB  int            `gorm:"default:10" json:"max_storage_gb"`
	Features      datatypes.JSON `gorm:"default:'[]'" json:"features"`
	StripePriceID string         `gorm:"size:100" json:"-"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type Subscription struct {
	models.Base
	TenantID             string           `gorm:"size:50;not null;index" json:"-"`
	UserID               uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID               uuid.UUID        `gorm:"type:uuid;not null" json:"plan_id"`
	Status               string           `gorm:"size:20;default:'active'" json:"status"`
	StripeSubscriptionID string           `gorm:"size:100" json:"-"`
	StripeCustomerID     string           `gorm:"size:100" json:"-"`
	CurrentPeriodStart   time.Time        `json:"current_period_start"`
	CurrentPeriodEnd     time.Time        `json:"current_period_end"`
	TrialEnd             *time.Time       `json:"trial_end"`
	CancelledAt          *time.Time       `json:"cancelled_at"`
	Plan                 SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan"`
	User                 models.User      `gorm:"foreignKey:UserID" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type Invoice struct {
	models.Base
	TenantID        string       `gorm:"size:50;not null;index" json:"-"`
	SubscriptionID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"subscription_id"`
	InvoiceNumber   string       `gorm:"size:50;uniqueIndex" json:"invoice_number"`
	AmountDue       float64      `gorm:"type:numeric(10,2);not null" json:"amount_due"`
	AmountPaid      float64      `gorm:"type:numeric(10,2);default:0" json:"amount_paid"`
	Status          string       `gorm:"size:20;default:'draft'" json:"status"`
	StripeInvoiceID string       `gorm:"size:100" json:"-"`
	DueDate         *time.Time   `json:"due_date"`
	PaidAt          *time.Time   `json:"paid_at"`
	Subscription    Subscription `gorm:"foreignKey:SubscriptionID" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// UsageMetric is one counter per (subscription, metric, day).
type UsageMetric struct {
	models.Base
	TenantID       string       `gorm:"size:50;not null;index;uniqueIndex:idx_usage_sub_metric_date" json:"-"`
	SubscriptionID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_usage_sub_metric_date" json:"subscription_id"`
	MetricType     string       `gorm:"size:50;not null;uniqueIndex:idx_usage_sub_metric_date" json:"metric_type"`
	Value          int64        `gorm:"default:0" json:"value"`
	Date           time.Time    `gorm:"type:date;not null;uniqueIndex:idx_usage_sub_metric_date" json:"date"`
	Subscription   Subscription `gorm:"foreignKey:SubscriptionID" json:"-"`
}

func (UsageMetric) TableName() string {
	return "usage_metrics"
}

// --- DTOs ---

type CreateSubscriptionRequest struct {
	PlanID string `json:"plan_id"`
}

type RecordUsageRequest struct {
	MetricType string `json:"metric_type"`
	Value      int64  `json:"value"`
}

// UsageSummary aggregates the current calendar month per metric.
type UsageSummary struct {
	MetricType string `json:"metric_type"`
	Total      int64  `json:"total"`
}
