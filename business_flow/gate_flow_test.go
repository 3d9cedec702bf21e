package businessflow_test

import (
	"testing"

	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	testingutil "github.com/fangate/fangate/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateViewFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		gateRepo := repository.NewGateRepository(testDB.DB)
		eventRepo := repository.NewAnalyticsEventRepository(testDB.DB)

		analytics := businessflow.NewAnalyticsFlow(eventRepo)
		// nil cache client: lookups go straight to the database
		flow := businessflow.NewGateViewFlow(gateRepo, analytics, nil)

		metadata := businessflow.NewClientMetadata("203.0.113.9", "test-agent")

		t.Run("ReturnsPublicProjection", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(
				testingutil.WithRequiredSteps(models.StepEmail, models.StepSoundcloudRepost))
			require.NoError(t, err)

			view, err := flow.View(ctx, gate.Slug, metadata, nil)
			require.NoError(t, err)

			assert.Equal(t, gate.UUID.String(), view.UUID)
			assert.Equal(t, gate.Slug, view.Slug)
			assert.Equal(t, gate.Title, view.Title)
			assert.True(t, view.Live)
			assert.Equal(t, []string{
				string(models.StepEmail),
				string(models.StepSoundcloudRepost),
			}, view.RequiredSteps)
		})

		t.Run("InactiveGateIsStillViewable", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(testingutil.WithInactive())
			require.NoError(t, err)

			view, err := flow.View(ctx, gate.Slug, metadata, nil)
			require.NoError(t, err)
			assert.False(t, view.Live)
		})

		t.Run("UnknownSlug", func(t *testing.T) {
			_, err := flow.View(ctx, "no-such-drop", metadata, nil)
			assert.True(t, businessflow.IsGateNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
