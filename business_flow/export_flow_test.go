package businessflow_test

import (
	"bytes"
	"fmt"
	"testing"

	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/fangate/fangate/repository"
	testingutil "github.com/fangate/fangate/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestOwnerGateFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		gateRepo := repository.NewGateRepository(testDB.DB)
		submissionRepo := repository.NewSubmissionRepository(testDB.DB)
		eventRepo := repository.NewAnalyticsEventRepository(testDB.DB)

		analytics := businessflow.NewAnalyticsFlow(eventRepo)
		flow := businessflow.NewOwnerGateFlow(gateRepo, submissionRepo, analytics)

		t.Run("StatsRequireOwnership", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(testingutil.WithGateOwner(42))
			require.NoError(t, err)

			_, err = flow.Stats(ctx, gate.UUID.String(), 99)
			assert.True(t, businessflow.IsGateAccessDenied(err))

			stats, err := flow.Stats(ctx, gate.UUID.String(), 42)
			require.NoError(t, err)
			assert.Equal(t, gate.UUID.String(), stats.GateUUID)
		})

		t.Run("StatsForUnknownGate", func(t *testing.T) {
			_, err := flow.Stats(ctx, "11111111-2222-4333-8444-555555555555", 42)
			assert.True(t, businessflow.IsGateNotFound(err))
		})

		t.Run("ExportRendersAllLeads", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(testingutil.WithGateOwner(42))
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				_, err := fixtures.CreateTestSubmission(gate)
				require.NoError(t, err)
			}

			filename, content, err := flow.ExportLeads(ctx, gate.UUID.String(), 42)
			require.NoError(t, err)

			assert.Equal(t, fmt.Sprintf("leads_%s_", gate.Slug), filename[:len(gate.Slug)+7])
			assert.Contains(t, filename, ".xlsx")
			require.NotEmpty(t, content)

			xl, err := excelize.OpenReader(bytes.NewReader(content))
			require.NoError(t, err)
			defer xl.Close()

			rows, err := xl.GetRows("leads")
			require.NoError(t, err)
			// Header plus three leads
			require.Len(t, rows, 4)
			assert.Equal(t, "email", rows[0][0])
			assert.Contains(t, rows[1][0], "@example.com")
		})

		t.Run("ExportRequiresOwnership", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(testingutil.WithGateOwner(42))
			require.NoError(t, err)
			_, err = fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			_, _, err = flow.ExportLeads(ctx, gate.UUID.String(), 99)
			assert.True(t, businessflow.IsGateAccessDenied(err))
		})

		return nil
	})
	require.NoError(t, err)
}
