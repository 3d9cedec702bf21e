package businessflow

import (
	"context"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	"github.com/fangate/fangate/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionFlow is the state machine over a visitor's progress record.
//
// SubmitEmail is idempotent per (gate, email): a repeat submission returns the
// existing record unchanged. MarkStepComplete is the idempotency contract
// third-party callbacks depend on: flags only move false -> true, repeats are
// acknowledged no-ops, and no call order is assumed.
type SubmissionFlow interface {
	SubmitEmail(ctx context.Context, gateSlug string, req *dto.SubmitEmailRequest, metadata *ClientMetadata) (*dto.SubmissionDTO, error)
	MarkStepComplete(ctx context.Context, submissionUUID string, step models.Step, metadata *ClientMetadata) (*dto.StepResultDTO, error)
}

type SubmissionFlowImpl struct {
	gateRepo       repository.GateRepository
	submissionRepo repository.SubmissionRepository
	analytics      AnalyticsFlow
	db             *gorm.DB
}

func NewSubmissionFlow(
	gateRepo repository.GateRepository,
	submissionRepo repository.SubmissionRepository,
	analytics AnalyticsFlow,
	db *gorm.DB,
) SubmissionFlow {
	return &SubmissionFlowImpl{
		gateRepo:       gateRepo,
		submissionRepo: submissionRepo,
		analytics:      analytics,
		db:             db,
	}
}

// SubmitEmail creates the submission record, capturing consent at this
// instant. The gate must exist and be live; the email must parse. A `submit`
// event is emitted only when a record is actually created.
func (f *SubmissionFlowImpl) SubmitEmail(ctx context.Context, gateSlug string, req *dto.SubmitEmailRequest, metadata *ClientMetadata) (*dto.SubmissionDTO, error) {
	gate, err := f.gateRepo.BySlug(ctx, gateSlug)
	if err != nil {
		return nil, NewBusinessError("GATE_LOOKUP_FAILED", "Failed to lookup gate", err)
	}
	if gate == nil {
		return nil, ErrGateNotFound
	}
	if !gate.IsLive(utils.UTCNow()) {
		return nil, ErrGateInactive
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	existing, err := f.submissionRepo.ByGateAndEmail(ctx, gate.ID, email)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LOOKUP_FAILED", "Failed to lookup submission", err)
	}
	if existing != nil {
		out := ToSubmissionDTO(existing, gate)
		out.AlreadySubmitted = true
		return out, nil
	}

	now := utils.UTCNow()
	submission := &models.Submission{
		UUID:             uuid.New(),
		GateID:           gate.ID,
		Email:            email,
		FirstName:        utils.NilIfEmpty(req.FirstName),
		ConsentMarketing: utils.ToPtr(req.ConsentMarketing),
		IPAddress:        utils.NilIfEmpty(metadata.IPAddress),
		UserAgent:        utils.NilIfEmpty(metadata.UserAgent),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.submissionRepo.Save(txCtx, submission)
	})
	if err != nil {
		// A concurrent submit for the same (gate, email) may have won the
		// unique index; converge on the surviving row.
		if winner, lookupErr := f.submissionRepo.ByGateAndEmail(ctx, gate.ID, email); lookupErr == nil && winner != nil {
			out := ToSubmissionDTO(winner, gate)
			out.AlreadySubmitted = true
			return out, nil
		}
		return nil, NewBusinessError("SUBMISSION_CREATE_FAILED", "Failed to create submission", err)
	}

	f.analytics.Record(gate, models.EventTypeSubmit, metadata, attributionFromSubmitRequest(req))

	return ToSubmissionDTO(submission, gate), nil
}

// MarkStepComplete sets the step flag with the current timestamp if not
// already set. Repeat calls return the current state with already_tracked, not
// an error. Flags are recorded even for steps the gate does not currently
// require; completeness ignores them.
func (f *SubmissionFlowImpl) MarkStepComplete(ctx context.Context, submissionUUID string, step models.Step, metadata *ClientMetadata) (*dto.StepResultDTO, error) {
	switch step {
	case models.StepSoundcloudRepost, models.StepSoundcloudFollow, models.StepInstagramFollow, models.StepSpotifyConnect:
	default:
		return nil, ErrUnknownStep
	}

	submission, err := f.submissionRepo.ByUUID(ctx, submissionUUID)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LOOKUP_FAILED", "Failed to lookup submission", err)
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}

	gate, err := f.gateRepo.ByID(ctx, submission.GateID)
	if err != nil {
		return nil, NewBusinessError("GATE_LOOKUP_FAILED", "Failed to lookup gate", err)
	}
	if gate == nil {
		return nil, ErrGateNotFound
	}

	tracked, err := f.submissionRepo.MarkStep(ctx, submission.ID, step, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("STEP_TRACK_FAILED", "Failed to track step completion", err)
	}

	if tracked {
		f.analytics.Record(gate, stepEventType(step), metadata, nil)
	}

	// Re-read for the post-transition flag vector.
	submission, err = f.submissionRepo.ByID(ctx, submission.ID)
	if err != nil || submission == nil {
		return nil, NewBusinessError("SUBMISSION_LOOKUP_FAILED", "Failed to reload submission", err)
	}

	return &dto.StepResultDTO{
		SubmissionUUID: submission.UUID.String(),
		Step:           string(step),
		AlreadyTracked: !tracked,
		Complete:       submission.IsCompleteFor(gate),
		MissingSteps:   stepNames(submission.MissingSteps(gate)),
	}, nil
}

func stepEventType(step models.Step) string {
	switch step {
	case models.StepSoundcloudRepost:
		return models.EventTypeSoundcloudRepost
	case models.StepSoundcloudFollow:
		return models.EventTypeSoundcloudFollow
	case models.StepInstagramFollow:
		return models.EventTypeInstagramClick
	case models.StepSpotifyConnect:
		return models.EventTypeSpotifyConnect
	}
	return string(step)
}

func attributionFromSubmitRequest(req *dto.SubmitEmailRequest) *Attribution {
	if req.UtmSource == "" && req.UtmMedium == "" && req.UtmCampaign == "" && req.Referrer == "" {
		return nil
	}
	return &Attribution{
		Referrer:    req.Referrer,
		UtmSource:   req.UtmSource,
		UtmMedium:   req.UtmMedium,
		UtmCampaign: req.UtmCampaign,
	}
}
