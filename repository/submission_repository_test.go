package repository_test

import (
	"testing"

	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	testingutil "github.com/fangate/fangate/testing"
	"github.com/fangate/fangate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRepositoryMarkStep(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		repo := repository.NewSubmissionRepository(testDB.DB)

		t.Run("FirstWriteWins", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			at := utils.UTCNow()
			tracked, err := repo.MarkStep(ctx, submission.ID, models.StepSoundcloudRepost, at)
			require.NoError(t, err)
			assert.True(t, tracked)

			// The repeat is a no-op signalled through the return value.
			later := utils.UTCNow()
			tracked, err = repo.MarkStep(ctx, submission.ID, models.StepSoundcloudRepost, later)
			require.NoError(t, err)
			assert.False(t, tracked)

			stored, err := repo.ByID(ctx, submission.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.SoundcloudRepostVerified))
			require.NotNil(t, stored.SoundcloudRepostedAt)
			assert.True(t, stored.SoundcloudRepostedAt.Equal(at))
		})

		t.Run("StepsAreIndependent", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			tracked, err := repo.MarkStep(ctx, submission.ID, models.StepSoundcloudFollow, utils.UTCNow())
			require.NoError(t, err)
			assert.True(t, tracked)

			tracked, err = repo.MarkStep(ctx, submission.ID, models.StepSpotifyConnect, utils.UTCNow())
			require.NoError(t, err)
			assert.True(t, tracked)

			stored, err := repo.ByID(ctx, submission.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.SoundcloudFollowVerified))
			assert.True(t, utils.IsTrue(stored.SpotifyConnected))
			assert.False(t, utils.IsTrue(stored.SoundcloudRepostVerified))
		})

		t.Run("EmailIsNotAColumnBackedStep", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			_, err = repo.MarkStep(ctx, submission.ID, models.StepEmail, utils.UTCNow())
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSubmissionRepositoryMarkDownloaded(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		repo := repository.NewSubmissionRepository(testDB.DB)
		gateRepo := repository.NewGateRepository(testDB.DB)

		gate, err := fixtures.CreateTestGate()
		require.NoError(t, err)
		submission, err := fixtures.CreateTestSubmission(gate)
		require.NoError(t, err)

		at := utils.UTCNow()
		flipped, err := repo.MarkDownloaded(ctx, submission.ID, at)
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = repo.MarkDownloaded(ctx, submission.ID, utils.UTCNow())
		require.NoError(t, err)
		assert.False(t, flipped)

		stored, err := repo.ByID(ctx, submission.ID)
		require.NoError(t, err)
		assert.True(t, utils.IsTrue(stored.DownloadCompleted))
		require.NotNil(t, stored.DownloadedAt)
		assert.True(t, stored.DownloadedAt.Equal(at))

		// The gate counter is a separate write; exercised here for the pairing
		// the download flow relies on.
		require.NoError(t, gateRepo.IncrementDownloads(ctx, gate.ID))
		require.NoError(t, gateRepo.IncrementDownloads(ctx, gate.ID))

		reloaded, err := gateRepo.ByID(ctx, gate.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, reloaded.DownloadCount)

		return nil
	})
	require.NoError(t, err)
}

func TestSubmissionRepositoryByGateAndEmail(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		repo := repository.NewSubmissionRepository(testDB.DB)

		gate, err := fixtures.CreateTestGate()
		require.NoError(t, err)
		submission, err := fixtures.CreateTestSubmission(gate)
		require.NoError(t, err)

		found, err := repo.ByGateAndEmail(ctx, gate.ID, submission.Email)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, submission.UUID, found.UUID)

		missing, err := repo.ByGateAndEmail(ctx, gate.ID, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)

		return nil
	})
	require.NoError(t, err)
}
