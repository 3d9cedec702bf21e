package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	"github.com/fangate/fangate/utils"
	"github.com/xuri/excelize/v2"
)

// OwnerGateFlow serves the owner-authenticated surfaces: the analytics
// aggregate and the leads export. Both verify gate ownership first.
type OwnerGateFlow interface {
	Stats(ctx context.Context, gateUUID string, ownerID uint) (*dto.GateStatsDTO, error)
	// ExportLeads renders the gate's submissions as an .xlsx workbook and
	// returns the suggested filename plus the file bytes.
	ExportLeads(ctx context.Context, gateUUID string, ownerID uint) (string, []byte, error)
}

type OwnerGateFlowImpl struct {
	gateRepo       repository.GateRepository
	submissionRepo repository.SubmissionRepository
	analytics      AnalyticsFlow
}

func NewOwnerGateFlow(
	gateRepo repository.GateRepository,
	submissionRepo repository.SubmissionRepository,
	analytics AnalyticsFlow,
) OwnerGateFlow {
	return &OwnerGateFlowImpl{
		gateRepo:       gateRepo,
		submissionRepo: submissionRepo,
		analytics:      analytics,
	}
}

func (f *OwnerGateFlowImpl) Stats(ctx context.Context, gateUUID string, ownerID uint) (*dto.GateStatsDTO, error) {
	gate, err := f.ownedGate(ctx, gateUUID, ownerID)
	if err != nil {
		return nil, err
	}
	return f.analytics.Aggregate(ctx, gate)
}

func (f *OwnerGateFlowImpl) ExportLeads(ctx context.Context, gateUUID string, ownerID uint) (string, []byte, error) {
	gate, err := f.ownedGate(ctx, gateUUID, ownerID)
	if err != nil {
		return "", nil, err
	}

	rows, err := f.submissionRepo.ListByGate(ctx, gate.ID, 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_SUBMISSIONS_FAILED", "Failed to fetch submissions", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "leads"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"email", "first_name", "consent_marketing", "complete", "soundcloud_reposted_at", "soundcloud_followed_at", "instagram_clicked_at", "spotify_connected_at", "downloaded_at", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, row := range rows {
		record := []any{
			row.Email,
			strOrEmpty(row.FirstName),
			utils.IsTrue(row.ConsentMarketing),
			row.IsCompleteFor(gate),
			timeOrEmpty(row.SoundcloudRepostedAt),
			timeOrEmpty(row.SoundcloudFollowedAt),
			timeOrEmpty(row.InstagramClickedAt),
			timeOrEmpty(row.SpotifyConnectedAt),
			timeOrEmpty(row.DownloadedAt),
			row.CreatedAt.Format(time.RFC3339),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := xl.SetSheetRow(sheet, cell, &record); err != nil {
			return "", nil, NewBusinessError("EXPORT_WRITE_FAILED", "Failed to write export row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_RENDER_FAILED", "Failed to render export workbook", err)
	}

	filename := fmt.Sprintf("leads_%s_%s.xlsx", gate.Slug, utils.UTCNow().Format("20060102"))
	return filename, buf.Bytes(), nil
}

func (f *OwnerGateFlowImpl) ownedGate(ctx context.Context, gateUUID string, ownerID uint) (*models.Gate, error) {
	gate, err := f.gateRepo.ByUUID(ctx, gateUUID)
	if err != nil {
		return nil, NewBusinessError("GATE_LOOKUP_FAILED", "Failed to lookup gate", err)
	}
	if gate == nil {
		return nil, ErrGateNotFound
	}
	if gate.OwnerID != ownerID {
		return nil, ErrGateAccessDenied
	}
	return gate, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
