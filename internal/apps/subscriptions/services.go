package subscriptions

import (
	"errors"
	"log/slog"
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/billing"
	"github.com/cloudflowhq/cloudflow-backend/internal/models"
	"github.com/cloudflowhq/cloudflow-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrNoFeaturedPlan      = errors.New("no featured plan available")
	ErrNoSubscription      = errors.New("no current subscription")
	ErrSubscriptionFailed  = errors.New("failed to create subscription")
	ErrSubscriptionMissing = errors.New("subscription not found")
)

type Service struct {
	db      *gorm.DB
	billing billing.Provider
}

func NewService(db *gorm.DB, provider billing.Provider) *Service {
	return &Service{db: db, billing: provider}
}

// --- Plans ---

// ListPlans returns the tenant's active catalog.
func (s *Service) ListPlans(tenantID string) ([]SubscriptionPlan, error) {
	var plans []SubscriptionPlan
	err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("is_active = ?", true).
		Order("price ASC").
		Find(&plans).Error
	return plans, err
}

// GetPlan resolves a plan by id regardless of is_active: deactivation hides a
// plan from the catalog but does not block subscribing to it directly.
func (s *Service) GetPlan(tenantID string, planID uuid.UUID) (*SubscriptionPlan, error) {
	var plan SubscriptionPlan
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		First(&plan, "id = ?", planID).Error; err != nil {
		return nil, ErrPlanNotFound
	}
	return &plan, nil
}

// FeaturedPlan returns the highlighted plan: the oldest active professional
// tier, with id as the tie-break so the pick is deterministic.
func (s *Service) FeaturedPlan(tenantID string) (*SubscriptionPlan, error) {
	var plan SubscriptionPlan
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("plan_type = ? AND is_active = ?", PlanProfessional, true).
		Order("created_at, id").
		First(&plan).Error; err != nil {
		return nil, ErrNoFeaturedPlan
	}
	return &plan, nil
}

// --- Subscriptions ---

func (s *Service) ListSubscriptions(tenantID string, userID uuid.UUID) ([]Subscription, error) {
	var subs []Subscription
	err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// CurrentSubscription returns the caller's newest active subscription.
func (s *Service) CurrentSubscription(tenantID string, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, SubActive).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		return nil, ErrNoSubscription
	}
	return &sub, nil
}

// CreateSubscription provisions the remote subscription first, then persists
// the local row. Each attempt carries fresh idempotency keys so a retried
// request cannot double-charge; if the local write fails after the remote
// subscription exists, the remote side is cancelled best-effort.
func (s *Service) CreateSubscription(tenantID string, user *models.User, planID uuid.UUID) (*Subscription, error) {
	plan, err := s.GetPlan(tenantID, planID)
	if err != nil {
		return nil, err
	}

	customer, err := s.billing.CreateCustomer(billing.CustomerParams{
		Email:          user.Email,
		Name:           user.FirstName + " " + user.LastName,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	remote, err := s.billing.CreateSubscription(billing.SubscriptionParams{
		CustomerID:     customer.ID,
		PriceID:        plan.StripePriceID,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	sub := Subscription{
		Base:                 models.Base{ID: uuid.New()},
		TenantID:             tenantID,
		UserID:               user.ID,
		PlanID:               plan.ID,
		Status:               SubActive,
		StripeSubscriptionID: remote.ID,
		StripeCustomerID:     customer.ID,
		CurrentPeriodStart:   remote.CurrentPeriodStart,
		CurrentPeriodEnd:     remote.CurrentPeriodEnd,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		if cancelErr := s.billing.CancelSubscription(remote.ID); cancelErr != nil {
			slog.Error("failed to cancel orphaned remote subscription",
				"tenant_id", tenantID, "remote_id", remote.ID, "error", cancelErr)
		}
		return nil, ErrSubscriptionFailed
	}

	sub.Plan = *plan
	return &sub, nil
}

// CreateSubscriptionForUser resolves the caller before provisioning.
func (s *Service) CreateSubscriptionForUser(tenantID string, userID, planID uuid.UUID) (*Subscription, error) {
	var user models.User
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return s.CreateSubscription(tenantID, &user, planID)
}

// CancelSubscription cancels remotely first, then flips local state.
func (s *Service) CancelSubscription(tenantID string, userID, subID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Preload("Plan").
		Where("id = ? AND user_id = ?", subID, userID).
		First(&sub).Error; err != nil {
		return nil, ErrSubscriptionMissing
	}

	if sub.StripeSubscriptionID != "" {
		if err := s.billing.CancelSubscription(sub.StripeSubscriptionID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       SubCanceled,
		"cancelled_at": &now,
	}
	if err := s.db.Model(&sub).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// --- Invoices ---

// ListInvoices returns invoices belonging to the caller's subscriptions.
func (s *Service) ListInvoices(tenantID string, userID uuid.UUID) ([]Invoice, error) {
	subIDs := s.db.Model(&Subscription{}).
		Select("id").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)

	var invoices []Invoice
	err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("subscription_id IN (?)", subIDs).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

// --- Usage metrics ---

func (s *Service) ListUsageMetrics(tenantID string, userID uuid.UUID) ([]UsageMetric, error) {
	subIDs := s.db.Model(&Subscription{}).
		Select("id").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)

	var metrics []UsageMetric
	err := s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("subscription_id IN (?)", subIDs).
		Order("date DESC").
		Find(&metrics).Error
	return metrics, err
}

// RecordUsage upserts the day's counter for the current subscription.
func (s *Service) RecordUsage(tenantID string, userID uuid.UUID, metricType string, value int64) (*UsageMetric, error) {
	if metricType == "" {
		return nil, errors.New("metric_type is required")
	}

	sub, err := s.CurrentSubscription(tenantID, userID)
	if err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)

	var metric UsageMetric
	err = s.db.Scopes(tenant.ForTenant(tenantID)).
		Where("subscription_id = ? AND metric_type = ? AND date = ?", sub.ID, metricType, today).
		First(&metric).Error
	if err == nil {
		if err := s.db.Model(&metric).Update("value", gorm.Expr("value + ?", value)).Error; err != nil {
			return nil, err
		}
		metric.Value += value
		return &metric, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	metric = UsageMetric{
		Base:           models.Base{ID: uuid.New()},
		TenantID:       tenantID,
		SubscriptionID: sub.ID,
		MetricType:     metricType,
		Value:          value,
		Date:           today,
	}
	if err := s.db.Create(&metric).Error; err != nil {
		return nil, err
	}
	return &metric, nil
}

// CurrentMonthUsage aggregates per metric over the current calendar month.
func (s *Service) CurrentMonthUsage(tenantID string, userID uuid.UUID) ([]UsageSummary, error) {
	sub, err := s.CurrentSubscription(tenantID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	summaries := []UsageSummary{}
	err = s.db.Model(&UsageMetric{}).
		Scopes(tenant.ForTenant(tenantID)).
		Select("metric_type, SUM(value) AS total").
		Where("subscription_id = ? AND date >= ?", sub.ID, monthStart).
		Group("metric_type").
		Scan(&summaries).Error
	return summaries, err
}
