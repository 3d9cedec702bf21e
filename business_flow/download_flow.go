package businessflow

import (
	"context"
	"time"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/app/services"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	"github.com/fangate/fangate/utils"
	"gorm.io/gorm"
)

// DownloadFlow gates link issuance behind completeness and records the
// download transition exactly once. Re-issuing for an already-downloaded,
// still-complete submission returns a fresh link without touching the flag or
// its timestamp.
type DownloadFlow interface {
	Issue(ctx context.Context, submissionUUID string, metadata *ClientMetadata) (*dto.DownloadLinkDTO, error)
}

type DownloadFlowImpl struct {
	gateRepo       repository.GateRepository
	submissionRepo repository.SubmissionRepository
	analytics      AnalyticsFlow
	signer         services.LinkSigner
	db             *gorm.DB
}

func NewDownloadFlow(
	gateRepo repository.GateRepository,
	submissionRepo repository.SubmissionRepository,
	analytics AnalyticsFlow,
	signer services.LinkSigner,
	db *gorm.DB,
) DownloadFlow {
	return &DownloadFlowImpl{
		gateRepo:       gateRepo,
		submissionRepo: submissionRepo,
		analytics:      analytics,
		signer:         signer,
		db:             db,
	}
}

func (f *DownloadFlowImpl) Issue(ctx context.Context, submissionUUID string, metadata *ClientMetadata) (*dto.DownloadLinkDTO, error) {
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

	// Completeness is evaluated against the gate's current required steps. A
	// concurrent verification callback may not have committed yet; the client
	// retries on IncompleteSubmission.
	if missing := submission.MissingSteps(gate); len(missing) > 0 {
		return nil, NewIncompleteSubmissionError(missing)
	}

	firstDownload := !utils.IsTrue(submission.DownloadCompleted)
	if firstDownload {
		// The cap bounds distinct completed submissions. Re-issues for
		// already-counted submissions stay allowed once the cap is hit.
		if gate.MaxDownloads != nil && gate.DownloadCount >= *gate.MaxDownloads {
			return nil, ErrDownloadCapReached
		}

		err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
			flipped, markErr := f.submissionRepo.MarkDownloaded(txCtx, submission.ID, utils.UTCNow())
			if markErr != nil {
				return markErr
			}
			// A racing issuance may have flipped the flag first; only the
			// winner counts against the gate cap.
			if flipped {
				return f.gateRepo.IncrementDownloads(txCtx, gate.ID)
			}
			return nil
		})
		if err != nil {
			return nil, NewBusinessError("DOWNLOAD_TRACK_FAILED", "Failed to record download", err)
		}

		f.analytics.Record(gate, models.EventTypeDownload, metadata, nil)
	}

	link, expiresAt, err := f.signer.IssueURL(gate.FileRef, submission.UUID.String())
	if err != nil {
		return nil, NewBusinessError("LINK_SIGNING_FAILED", "Failed to mint download link", err)
	}

	return &dto.DownloadLinkDTO{
		URL:       link,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		MediaType: gate.MediaType,
	}, nil
}
