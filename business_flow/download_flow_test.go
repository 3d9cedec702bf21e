package businessflow_test

import (
	"strings"
	"testing"
	"time"

	"github.com/fangate/fangate/app/services"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	testingutil "github.com/fangate/fangate/testing"
	"github.com/fangate/fangate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFlowIssue(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		gateRepo := repository.NewGateRepository(testDB.DB)
		submissionRepo := repository.NewSubmissionRepository(testDB.DB)
		eventRepo := repository.NewAnalyticsEventRepository(testDB.DB)

		analytics := businessflow.NewAnalyticsFlow(eventRepo)
		signer, err := services.NewLinkSigner("https://dl.example.com", "test-signing-key-at-least-32-chars-long", "fangate", time.Hour)
		require.NoError(t, err)

		flow := businessflow.NewDownloadFlow(gateRepo, submissionRepo, analytics, signer, testDB.DB)
		metadata := businessflow.NewClientMetadata("203.0.113.9", "test-agent")

		t.Run("IncompleteSubmissionIsRefusedWithoutMutation", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(
				testingutil.WithRequiredSteps(models.StepEmail, models.StepSoundcloudRepost, models.StepSpotifyConnect))
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			_, err = flow.Issue(ctx, submission.UUID.String(), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncompleteSubmission(err))
			assert.Equal(t, []models.Step{models.StepSoundcloudRepost, models.StepSpotifyConnect},
				businessflow.MissingStepsFrom(err))

			stored, err := submissionRepo.ByUUID(ctx, submission.UUID.String())
			require.NoError(t, err)
			assert.False(t, utils.IsTrue(stored.DownloadCompleted))
			assert.Nil(t, stored.DownloadedAt)

			reloaded, err := gateRepo.ByID(ctx, gate.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, reloaded.DownloadCount)
		})

		t.Run("CompleteSubmissionGetsLinkAndCountsOnce", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			link, err := flow.Issue(ctx, submission.UUID.String(), metadata)
			require.NoError(t, err)
			require.NotNil(t, link)
			assert.True(t, strings.HasPrefix(link.URL, "https://dl.example.com/download?token="))
			assert.Equal(t, gate.MediaType, link.MediaType)
			assert.NotEmpty(t, link.ExpiresAt)

			stored, err := submissionRepo.ByUUID(ctx, submission.UUID.String())
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.DownloadCompleted))
			require.NotNil(t, stored.DownloadedAt)
			firstDownloadedAt := *stored.DownloadedAt

			reloaded, err := gateRepo.ByID(ctx, gate.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.DownloadCount)

			// Re-issue: fresh link, no second count, timestamp untouched.
			again, err := flow.Issue(ctx, submission.UUID.String(), metadata)
			require.NoError(t, err)
			assert.NotEqual(t, link.URL, again.URL)

			stored, err = submissionRepo.ByUUID(ctx, submission.UUID.String())
			require.NoError(t, err)
			assert.True(t, stored.DownloadedAt.Equal(firstDownloadedAt))

			reloaded, err = gateRepo.ByID(ctx, gate.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.DownloadCount)
		})

		t.Run("CapBlocksNewDownloadsButNotReissues", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(testingutil.WithMaxDownloads(1))
			require.NoError(t, err)

			first, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)
			second, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			_, err = flow.Issue(ctx, first.UUID.String(), metadata)
			require.NoError(t, err)

			// The cap is spent; a distinct submission is refused.
			_, err = flow.Issue(ctx, second.UUID.String(), metadata)
			assert.True(t, businessflow.IsDownloadCapReached(err))

			// The submission that already counted can still re-issue.
			_, err = flow.Issue(ctx, first.UUID.String(), metadata)
			assert.NoError(t, err)
		})

		t.Run("UnknownSubmission", func(t *testing.T) {
			_, err := flow.Issue(ctx, "11111111-2222-4333-8444-555555555555", metadata)
			assert.True(t, businessflow.IsSubmissionNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
