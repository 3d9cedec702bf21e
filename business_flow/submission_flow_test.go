package businessflow_test

import (
	"testing"
	"time"

	"github.com/fangate/fangate/app/dto"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	testingutil "github.com/fangate/fangate/testing"
	"github.com/fangate/fangate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionFlowSubmitEmail(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		gateRepo := repository.NewGateRepository(testDB.DB)
		submissionRepo := repository.NewSubmissionRepository(testDB.DB)
		eventRepo := repository.NewAnalyticsEventRepository(testDB.DB)

		analytics := businessflow.NewAnalyticsFlow(eventRepo)
		flow := businessflow.NewSubmissionFlow(gateRepo, submissionRepo, analytics, testDB.DB)

		metadata := businessflow.NewClientMetadata("203.0.113.9", "test-agent")

		t.Run("CreatesSubmissionRecord", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)

			result, err := flow.SubmitEmail(ctx, gate.Slug, &dto.SubmitEmailRequest{
				Email:            "Fan.One@Example.com",
				FirstName:        "Dana",
				ConsentMarketing: true,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.False(t, result.AlreadySubmitted)
			assert.Equal(t, "fan.one@example.com", result.Email)
			assert.Equal(t, gate.UUID.String(), result.GateUUID)
			assert.True(t, result.ConsentGiven)
			// Email-only gate: complete on creation
			assert.True(t, result.Complete)
			assert.Empty(t, result.MissingSteps)

			stored, err := submissionRepo.ByGateAndEmail(ctx, gate.ID, "fan.one@example.com")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, utils.IsTrue(stored.ConsentMarketing))
			require.NotNil(t, stored.IPAddress)
			assert.Equal(t, "203.0.113.9", *stored.IPAddress)
		})

		t.Run("RepeatSubmitReturnsExistingRecord", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)

			first, err := flow.SubmitEmail(ctx, gate.Slug, &dto.SubmitEmailRequest{
				Email:            "repeat@example.com",
				ConsentMarketing: true,
			}, metadata)
			require.NoError(t, err)

			// Consent on the repeat differs; the stored record must not change.
			second, err := flow.SubmitEmail(ctx, gate.Slug, &dto.SubmitEmailRequest{
				Email:            "  REPEAT@example.com ",
				ConsentMarketing: false,
			}, metadata)
			require.NoError(t, err)

			assert.True(t, second.AlreadySubmitted)
			assert.Equal(t, first.UUID, second.UUID)
			assert.True(t, second.ConsentGiven)

			var count int64
			require.NoError(t, testDB.DB.Model(&models.Submission{}).
				Where("gate_id = ?", gate.ID).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})

		t.Run("UnknownSlug", func(t *testing.T) {
			_, err := flow.SubmitEmail(ctx, "no-such-drop", &dto.SubmitEmailRequest{
				Email: "fan@example.com",
			}, metadata)
			assert.True(t, businessflow.IsGateNotFound(err))
		})

		t.Run("InactiveGateRejectsSubmitWithoutSideEffects", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(testingutil.WithInactive())
			require.NoError(t, err)

			_, err = flow.SubmitEmail(ctx, gate.Slug, &dto.SubmitEmailRequest{
				Email: "fan@example.com",
			}, metadata)
			assert.True(t, businessflow.IsGateInactive(err))

			var count int64
			require.NoError(t, testDB.DB.Model(&models.Submission{}).
				Where("gate_id = ?", gate.ID).Count(&count).Error)
			assert.Equal(t, int64(0), count)
		})

		t.Run("ExpiredGateRejectsSubmit", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(gate).
				Update("expires_at", utils.UTCNow().Add(-time.Minute)).Error)

			_, err = flow.SubmitEmail(ctx, gate.Slug, &dto.SubmitEmailRequest{
				Email: "fan@example.com",
			}, metadata)
			assert.True(t, businessflow.IsGateInactive(err))
		})

		t.Run("MalformedEmail", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)

			_, err = flow.SubmitEmail(ctx, gate.Slug, &dto.SubmitEmailRequest{
				Email: "not-an-email",
			}, metadata)
			assert.True(t, businessflow.IsInvalidEmail(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSubmissionFlowMarkStepComplete(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		gateRepo := repository.NewGateRepository(testDB.DB)
		submissionRepo := repository.NewSubmissionRepository(testDB.DB)
		eventRepo := repository.NewAnalyticsEventRepository(testDB.DB)

		analytics := businessflow.NewAnalyticsFlow(eventRepo)
		flow := businessflow.NewSubmissionFlow(gateRepo, submissionRepo, analytics, testDB.DB)

		metadata := businessflow.NewClientMetadata("203.0.113.9", "test-agent")

		t.Run("FirstCallTracksTheStep", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(
				testingutil.WithRequiredSteps(models.StepEmail, models.StepSoundcloudRepost))
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			result, err := flow.MarkStepComplete(ctx, submission.UUID.String(), models.StepSoundcloudRepost, metadata)
			require.NoError(t, err)

			assert.False(t, result.AlreadyTracked)
			assert.True(t, result.Complete)
			assert.Empty(t, result.MissingSteps)

			stored, err := submissionRepo.ByUUID(ctx, submission.UUID.String())
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.SoundcloudRepostVerified))
			assert.NotNil(t, stored.SoundcloudRepostedAt)
		})

		t.Run("RepeatCallIsAcknowledgedNotReapplied", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(
				testingutil.WithRequiredSteps(models.StepEmail, models.StepInstagramFollow))
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			first, err := flow.MarkStepComplete(ctx, submission.UUID.String(), models.StepInstagramFollow, metadata)
			require.NoError(t, err)
			assert.False(t, first.AlreadyTracked)

			stored, err := submissionRepo.ByUUID(ctx, submission.UUID.String())
			require.NoError(t, err)
			firstStamp := stored.InstagramClickedAt
			require.NotNil(t, firstStamp)

			second, err := flow.MarkStepComplete(ctx, submission.UUID.String(), models.StepInstagramFollow, metadata)
			require.NoError(t, err)
			assert.True(t, second.AlreadyTracked)
			assert.True(t, second.Complete)

			stored, err = submissionRepo.ByUUID(ctx, submission.UUID.String())
			require.NoError(t, err)
			// The original timestamp survives the repeat.
			assert.True(t, stored.InstagramClickedAt.Equal(*firstStamp))
		})

		t.Run("StepNotRequiredIsStillRecorded", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate(
				testingutil.WithRequiredSteps(models.StepEmail, models.StepSpotifyConnect))
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			result, err := flow.MarkStepComplete(ctx, submission.UUID.String(), models.StepSoundcloudFollow, metadata)
			require.NoError(t, err)

			// The flag is stored but does not satisfy the gate.
			assert.False(t, result.AlreadyTracked)
			assert.False(t, result.Complete)
			assert.Equal(t, []string{string(models.StepSpotifyConnect)}, result.MissingSteps)
		})

		t.Run("EmailIsNotAMarkableStep", func(t *testing.T) {
			gate, err := fixtures.CreateTestGate()
			require.NoError(t, err)
			submission, err := fixtures.CreateTestSubmission(gate)
			require.NoError(t, err)

			_, err = flow.MarkStepComplete(ctx, submission.UUID.String(), models.StepEmail, metadata)
			assert.True(t, businessflow.IsUnknownStep(err))
		})

		t.Run("UnknownSubmission", func(t *testing.T) {
			_, err := flow.MarkStepComplete(ctx, "11111111-2222-4333-8444-555555555555", models.StepSpotifyConnect, metadata)
			assert.True(t, businessflow.IsSubmissionNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
