package core_test

import (
	"testing"

	"github.com/cloudflowhq/cloudflow-backend/internal/apps/core"
	"github.com/cloudflowhq/cloudflow-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Profiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := core.NewService(db)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	bob := testutil.CreateTestUser(t, db, testutil.TestTenant, "bob")

	profile, err := svc.GetOrCreateProfile(testutil.TestTenant, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", profile.Timezone)

	t.Run("get is idempotent", func(t *testing.T) {
		again, err := svc.GetOrCreateProfile(testutil.TestTenant, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, again.ID)
	})

	t.Run("listing only shows the caller's profile", func(t *testing.T) {
		profiles, err := svc.ListProfiles(testutil.TestTenant, alice.ID)
		require.NoError(t, err)
		assert.Len(t, profiles, 1)

		profiles, err = svc.ListProfiles(testutil.TestTenant, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("another user cannot update the profile", func(t *testing.T) {
		company := "Initech"
		_, err := svc.UpdateProfile(testutil.TestTenant, bob.ID, profile.ID, &core.UpdateProfileRequest{
			Company: &company,
		})
		assert.ErrorIs(t, err, core.ErrProfileNotFound)
	})

	t.Run("owner partial update", func(t *testing.T) {
		company := "Acme Corp"
		updated, err := svc.UpdateProfile(testutil.TestTenant, alice.ID, profile.ID, &core.UpdateProfileRequest{
			Company: &company,
		})
		require.NoError(t, err)

		var stored core.UserProfile
		require.NoError(t, db.First(&stored, "id = ?", updated.ID).Error)
		assert.Equal(t, "Acme Corp", stored.Company)
		assert.Equal(t, "UTC", stored.Timezone)
	})
}

func TestService_Activities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := core.NewService(db)

	alice := testutil.CreateTestUser(t, db, testutil.TestTenant, "alice")
	bob := testutil.CreateTestUser(t, db, testutil.TestTenant, "bob")

	svc.RecordActivity(testutil.TestTenant, alice.ID, "login", "Logged in", "127.0.0.1")
	svc.RecordActivity(testutil.TestTenant, alice.ID, "register", "Account created", "127.0.0.1")
	svc.RecordActivity(testutil.TestTenant, bob.ID, "login", "Logged in", "127.0.0.1")

	t.Run("rows visible only to their owner", func(t *testing.T) {
		activities, total, err := svc.ListActivities(testutil.TestTenant, alice.ID, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, a := range activities {
			assert.Equal(t, alice.ID, a.UserID)
		}

		_, total, err = svc.ListActivities(testutil.TestTenant, bob.ID, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		_, total, err := svc.ListActivities("globex", alice.ID, 20, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("pagination", func(t *testing.T) {
		activities, total, err := svc.ListActivities(testutil.TestTenant, alice.ID, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, activities, 1)
	})
}
