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

func seedEvents(t *testing.T, testDB *testingutil.TestDB, gateID uint, eventType string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, testDB.DB.Create(&models.AnalyticsEvent{
			GateID:    gateID,
			EventType: eventType,
		}).Error)
	}
}

func TestAnalyticsFlowAggregate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		eventRepo := repository.NewAnalyticsEventRepository(testDB.DB)
		analytics := businessflow.NewAnalyticsFlow(eventRepo)

		t.Run("DerivesCountersAndRates", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)

			seedEvents(t, testDB, gate.ID, models.EventTypeView, 100)
			seedEvents(t, testDB, gate.ID, models.EventTypeSubmit, 25)
			seedEvents(t, testDB, gate.ID, models.EventTypeSoundcloudRepost, 10)
			seedEvents(t, testDB, gate.ID, models.EventTypeDownload, 5)

			stats, err := analytics.Aggregate(ctx, gate)
			require.NoError(t, err)

			assert.Equal(t, gate.UUID.String(), stats.GateUUID)
			assert.Equal(t, int64(100), stats.Views)
			assert.Equal(t, int64(25), stats.Submissions)
			assert.Equal(t, int64(5), stats.Downloads)
			assert.InDelta(t, 0.25, stats.ConversionRate, 1e-9)
			assert.Equal(t, int64(10), stats.StepCompletions[models.EventTypeSoundcloudRepost])
			assert.InDelta(t, 0.4, stats.StepRates[models.EventTypeSoundcloudRepost], 1e-9)
			assert.Equal(t, int64(0), stats.StepCompletions[models.EventTypeSpotifyConnect])
		})

		t.Run("ZeroDenominatorsYieldZeroRates", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)

			stats, err := analytics.Aggregate(ctx, gate)
			require.NoError(t, err)

			assert.Equal(t, int64(0), stats.Views)
			assert.Equal(t, float64(0), stats.ConversionRate)
			assert.Equal(t, float64(0), stats.StepRates[models.EventTypeInstagramClick])
		})

		t.Run("EventsDoNotLeakAcrossGates", func(t *testing.T) {
			first, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			second, err := fixtures.CreateTestGate()
			require.NoError(t, err)

			seedEvents(t, testDB, first.ID, models.EventTypeView, 7)
			seedEvents(t, testDB, second.ID, models.EventTypeView, 3)

			stats, err := analytics.Aggregate(ctx, second)
			require.NoError(t, err)
			assert.Equal(t, int64(3), stats.Views)
		})

		return nil
	})
	require.NoError(t, err)
}
