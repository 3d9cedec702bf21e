package businessflow

import (
	"context"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/app/services"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
)

const defaultInstagramRedirect = "https://www.instagram.com/"

// VerificationFlow hosts the three platform adapters. Each one confirms a
// visitor action and advances the ledger through MarkStepComplete; repeat
// invocations are safe because the flag semantics underneath are idempotent,
// not because the adapters deduplicate anything themselves.
type VerificationFlow interface {
	// VerifySoundcloud handles the repost/follow webhook: polls the platform
	// for the action, then marks the step.
	VerifySoundcloud(ctx context.Context, req *dto.SoundcloudWebhookRequest, metadata *ClientMetadata) (*dto.StepResultDTO, error)
	// TrackInstagramClick records the click-through at redirect time. The
	// click itself is the verification; no external check is made. Returns
	// the profile URL to redirect the visitor to.
	TrackInstagramClick(ctx context.Context, submissionUUID string, metadata *ClientMetadata, attribution *Attribution) (string, *dto.StepResultDTO, error)
	// ConnectSpotify completes the OAuth handshake server-side and marks the
	// account-connect step.
	ConnectSpotify(ctx context.Context, submissionUUID, code string, metadata *ClientMetadata) (*dto.StepResultDTO, error)
}

type VerificationFlowImpl struct {
	gateRepo       repository.GateRepository
	submissionRepo repository.SubmissionRepository
	submissions    SubmissionFlow
	soundcloud     services.SoundcloudClient
	spotify        services.SpotifyClient
}

func NewVerificationFlow(
	gateRepo repository.GateRepository,
	submissionRepo repository.SubmissionRepository,
	submissions SubmissionFlow,
	soundcloud services.SoundcloudClient,
	spotify services.SpotifyClient,
) VerificationFlow {
	return &VerificationFlowImpl{
		gateRepo:       gateRepo,
		submissionRepo: submissionRepo,
		submissions:    submissions,
		soundcloud:     soundcloud,
		spotify:        spotify,
	}
}

func (f *VerificationFlowImpl) VerifySoundcloud(ctx context.Context, req *dto.SoundcloudWebhookRequest, metadata *ClientMetadata) (*dto.StepResultDTO, error) {
	submission, gate, err := f.loadSubmissionAndGate(ctx, req.SubmissionUUID)
	if err != nil {
		return nil, err
	}

	var step models.Step
	var performed bool
	switch req.Action {
	case "repost":
		step = models.StepSoundcloudRepost
		trackURN := ""
		if gate.SoundcloudTrackURL != nil {
			trackURN = *gate.SoundcloudTrackURL
		}
		performed, err = f.soundcloud.HasReposted(ctx, trackURN, req.SoundcloudUserID)
	case "follow":
		step = models.StepSoundcloudFollow
		artistURN := ""
		if gate.SoundcloudArtistURN != nil {
			artistURN = *gate.SoundcloudArtistURN
		}
		performed, err = f.soundcloud.IsFollowing(ctx, artistURN, req.SoundcloudUserID)
	default:
		return nil, ErrUnknownStep
	}
	if err != nil {
		return nil, NewBusinessError("SOUNDCLOUD_UNAVAILABLE", "SoundCloud verification failed", ErrVerificationUnavailable)
	}
	if !performed {
		return nil, ErrActionNotPerformed
	}

	return f.submissions.MarkStepComplete(ctx, submission.UUID.String(), step, metadata)
}

func (f *VerificationFlowImpl) TrackInstagramClick(ctx context.Context, submissionUUID string, metadata *ClientMetadata, attribution *Attribution) (string, *dto.StepResultDTO, error) {
	_, gate, err := f.loadSubmissionAndGate(ctx, submissionUUID)
	if err != nil {
		return "", nil, err
	}

	redirect := defaultInstagramRedirect
	if gate.InstagramProfileURL != nil && *gate.InstagramProfileURL != "" {
		redirect = *gate.InstagramProfileURL
	}

	result, err := f.submissions.MarkStepComplete(ctx, submissionUUID, models.StepInstagramFollow, metadata)
	if err != nil {
		return "", nil, err
	}
	return redirect, result, nil
}

func (f *VerificationFlowImpl) ConnectSpotify(ctx context.Context, submissionUUID, code string, metadata *ClientMetadata) (*dto.StepResultDTO, error) {
	if _, _, err := f.loadSubmissionAndGate(ctx, submissionUUID); err != nil {
		return nil, err
	}

	account, err := f.spotify.ExchangeCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("SPOTIFY_UNAVAILABLE", "Spotify code exchange failed", ErrVerificationUnavailable)
	}
	if account == nil || account.UserID == "" {
		return nil, ErrActionNotPerformed
	}

	return f.submissions.MarkStepComplete(ctx, submissionUUID, models.StepSpotifyConnect, metadata)
}

func (f *VerificationFlowImpl) loadSubmissionAndGate(ctx context.Context, submissionUUID string) (*models.Submission, *models.Gate, error) {
	submission, err := f.submissionRepo.ByUUID(ctx, submissionUUID)
	if err != nil {
		return nil, nil, NewBusinessError("SUBMISSION_LOOKUP_FAILED", "Failed to lookup submission", err)
	}
	if submission == nil {
		return nil, nil, ErrSubmissionNotFound
	}

	gate, err := f.gateRepo.ByID(ctx, submission.GateID)
	if err != nil {
		return nil, nil, NewBusinessError("GATE_LOOKUP_FAILED", "Failed to lookup gate", err)
	}
	if gate == nil {
		return nil, nil, ErrGateNotFound
	}
	return submission, gate, nil
}
