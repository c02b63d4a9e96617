package subscriptions_test

import (
	"testing"
	"time"

	"github.com/cloudflowhq/cloudflow-backend/internal/apps/subscriptions"
	"github.com/cloudflowhq/cloudflow-backend/internal/billing"
	"github.com/cloudflowhq/cloudflow-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeProvider stands in for the payment processor.
type fakeProvider struct {
	customerErr     error
	subscriptionErr error
	cancelled       []string
	subsCreated     int
}

func (f *fakeProvider) CreateCustomer(params billing.CustomerParams) (*billing.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &billing.Customer{ID: "cus_" + uuid.NewString()[:8]}, nil
}

func (f *fakeProvider) CreateSubscription(params billing.SubscriptionParams) (*billing.RemoteSubscription, error) {
	if f.subscriptionErr != nil {
		return nil, f.subscriptionErr
	}
	f.subsCreated++
	now := time.Now()
	return &billing.RemoteSubscription{
		ID:                 "sub_" + uuid.NewString()[:8],
		Status:             "active",
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}, nil
}

func (f *fakeProvider) CancelSubscription(subscriptionID string) error {
	f.cancelled = append(f.cancelled, subscriptionID)
	return nil
}

func setupSubscriptionService(t *testing.T) (*subscriptions.Service, *gorm.DB, *fakeProvider) {
	db := testutil.SetupTestDB(t)
	provider := &fakeProvider{}
	return subscriptions.NewService(db, provider), db, provider
}

func TestService_Plans(t *testing.T) {
	svc, db, _ := setupSubscriptionService(t)

	testutil.CreateTestPlan(t, db, testutil.TestTenant, "Starter", subscriptions.PlanStarter, 9.99)
	inactive := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Legacy", subscriptions.PlanStarter, 4.99)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	testutil.CreateTestPlan(t, db, "globex", "Other Tenant", subscriptions.PlanStarter, 19.99)

	t.Run("active plans only", func(t *testing.T) {
		plans, err := svc.ListPlans(testutil.TestTenant)
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, "Starter", plans[0].Name)
	})

	t.Run("featured picks the oldest active professional", func(t *testing.T) {
		_, err := svc.FeaturedPlan(testutil.TestTenant)
		assert.ErrorIs(t, err, subscriptions.ErrNoFeaturedPlan)

		first := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro", subscriptions.PlanProfessional, 29.99)
		testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro v2", subscriptions.PlanProfessional, 39.99)
		// Make ordering unambiguous.
		require.NoError(t, db.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error)

		featured, err := svc.FeaturedPlan(testutil.TestTenant)
		require.NoError(t, err)
		assert.Equal(t, first.ID, featured.ID)

		// Deactivating the featured plan moves the pick forward.
		require.NoError(t, db.Model(first).Update("is_active", false).Error)
		featured, err = svc.FeaturedPlan(testutil.TestTenant)
		require.NoError(t, err)
		assert.Equal(t, "Pro v2", featured.Name)
	})
}

func TestService_CreateSubscription(t *testing.T) {
	svc, db, provider := setupSubscriptionService(t)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	plan := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro", subscriptions.PlanProfessional, 29.99)

	t.Run("successful provisioning", func(t *testing.T) {
		sub, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, subscriptions.SubActive, sub.Status)
		assert.NotEmpty(t, sub.StripeSubscriptionID)
		assert.NotEmpty(t, sub.StripeCustomerID)
		assert.Equal(t, plan.ID, sub.PlanID)

		current, err := svc.CurrentSubscription(testutil.TestTenant, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, current.ID)
		assert.Equal(t, "Pro", current.Plan.Name)
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, uuid.New())
		assert.ErrorIs(t, err, subscriptions.ErrPlanNotFound)
	})

	t.Run("deactivated plan is still subscribable by id", func(t *testing.T) {
		retired := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Retired", subscriptions.PlanStarter, 9.99)
		require.NoError(t, db.Model(retired).Update("is_active", false).Error)

		sub, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, retired.ID)
		require.NoError(t, err)
		assert.Equal(t, retired.ID, sub.PlanID)
	})

	t.Run("processor error is surfaced verbatim", func(t *testing.T) {
		provider.subscriptionErr = &billing.ProviderError{Message: "Your card was declined."}
		defer func() { provider.subscriptionErr = nil }()

		_, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, plan.ID)
		var provErr *billing.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "Your card was declined.", provErr.Message)
	})
}

func TestService_CreateSubscriptionCompensation(t *testing.T) {
	svc, db, provider := setupSubscriptionService(t)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	plan := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro", subscriptions.PlanProfessional, 29.99)

	// Force the local persist to fail after the remote subscription exists.
	require.NoError(t, db.Migrator().DropTable(&subscriptions.Subscription{}))

	_, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, plan.ID)
	require.Error(t, err)
	assert.Equal(t, 1, provider.subsCreated)
	assert.Len(t, provider.cancelled, 1)
}

func TestService_CancelSubscription(t *testing.T) {
	svc, db, provider := setupSubscriptionService(t)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	plan := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro", subscriptions.PlanProfessional, 29.99)

	sub, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, plan.ID)
	require.NoError(t, err)

	cancelled, err := svc.CancelSubscription(testutil.TestTenant, alice.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.SubCanceled, cancelled.Status)
	assert.Equal(t, "canceled", cancelled.Status)
	assert.Equal(t, []string{sub.StripeSubscriptionID}, provider.cancelled)

	_, err = svc.CurrentSubscription(testutil.TestTenant, alice.ID)
	assert.ErrorIs(t, err, subscriptions.ErrNoSubscription)
}

func TestService_Invoices(t *testing.T) {
	svc, db, _ := setupSubscriptionService(t)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	bob := testutil.CreateTestUser(t, db, testutil.TestTenant, "bob")
	plan := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro", subscriptions.PlanProfessional, 29.99)

	sub, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, plan.ID)
	require.NoError(t, err)

	invoice := subscriptions.Invoice{
		TenantID:       testutil.TestTenant,
		SubscriptionID: sub.ID,
		InvoiceNumber:  "INV-0001",
		AmountDue:      29.99,
		AmountPaid:     0,
		Status:         subscriptions.InvoiceUncollectible,
	}
	require.NoError(t, db.Create(&invoice).Error)

	t.Run("scoped to the caller's subscriptions", func(t *testing.T) {
		invoices, err := svc.ListInvoices(testutil.TestTenant, alice.ID)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, 29.99, invoices[0].AmountDue)
		assert.Equal(t, float64(0), invoices[0].AmountPaid)
		assert.Equal(t, "uncollectible", invoices[0].Status)

		invoices, err = svc.ListInvoices(testutil.TestTenant, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})
}

func TestService_CurrentSubscription(t *testing.T) {
	svc, db, _ := setupSubscriptionService(t)
	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")

	_, err := svc.CurrentSubscription(testutil.TestTenant, alice.ID)
	assert.ErrorIs(t, err, subscriptions.ErrNoSubscription)
}

func TestService_Usage(t *testing.T) {
	svc, db, _ := setupSubscriptionService(t)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	plan := testutil.CreateTestPlan(t, db, testutil.TestTenant, "Pro", subscriptions.PlanProfessional, 29.99)
	_, err := svc.CreateSubscriptionForUser(testutil.TestTenant, alice.ID, plan.ID)
	require.NoError(t, err)

	t.Run("same-day usage accumulates into one row", func(t *testing.T) {
		first, err := svc.RecordUsage(testutil.TestTenant, alice.ID, "api_calls", 10)
		require.NoError(t, err)

		second, err := svc.RecordUsage(testutil.TestTenant, alice.ID, "api_calls", 5)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(15), second.Value)

		var count int64
		db.Model(&subscriptions.UsageMetric{}).Where("metric_type = ?", "api_calls").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("month summary aggregates per metric", func(t *testing.T) {
		_, err := svc.RecordUsage(testutil.TestTenant, alice.ID, "storage_gb", 2)
		require.NoError(t, err)

		summaries, err := svc.CurrentMonthUsage(testutil.TestTenant, alice.ID)
		require.NoError(t, err)

		totals := map[string]int64{}
		for _, s := range summaries {
			totals[s.MetricType] = s.Total
		}
		assert.Equal(t, int64(15), totals["api_calls"])
		assert.Equal(t, int64(2), totals["storage_gb"])
	})

	t.Run("no subscription", func(t *testing.T) {
		bob := testutil.CreateTestUser(t, db, testutil.TestTenant, "bob")
		_, err := svc.RecordUsage(testutil.TestTenant, bob.ID, "api_calls", 1)
		assert.ErrorIs(t, err, subscriptions.ErrNoSubscription)
	})
}
