package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/utils"
	"gorm.io/gorm"
)

// SubmissionRepositoryImpl implements SubmissionRepository
type SubmissionRepositoryImpl struct {
	*BaseRepository[models.Submission, models.SubmissionFilter]
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &SubmissionRepositoryImpl{BaseRepository: NewBaseRepository[models.Submission, models.SubmissionFilter](db)}
}

// stepColumns maps a step to its flag and timestamp columns. The flag column
// doubles as the guard in MarkStep's WHERE clause.
func stepColumns(step models.Step) (flagCol, atCol string, err error) {
	switch step {
	case models.StepSoundcloudRepost:
		return "soundcloud_repost_verified", "soundcloud_reposted_at", nil
	case models.StepSoundcloudFollow:
		return "soundcloud_follow_verified", "soundcloud_followed_at", nil
	case models.StepInstagramFollow:
		return "instagram_click_tracked", "instagram_clicked_at", nil
	case models.StepSpotifyConnect:
		return "spotify_connected", "spotify_connected_at", nil
	}
	return "", "", fmt.Errorf("step %q has no progress columns", step)
}

func (r *SubmissionRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Submission, error) {
	db := r.getDB(ctx)
	var row models.Submission
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *SubmissionRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Submission, error) {
	filter := models.SubmissionFilter{UUID: &uuid}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *SubmissionRepositoryImpl) ByGateAndEmail(ctx context.Context, gateID uint, email string) (*models.Submission, error) {
	normalized := utils.NormalizeEmail(email)
	filter := models.SubmissionFilter{GateID: &gateID, Email: &normalized}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *SubmissionRepositoryImpl) ListByGate(ctx context.Context, gateID uint, limit, offset int) ([]*models.Submission, error) {
	filter := models.SubmissionFilter{GateID: &gateID}
	return r.ByFilter(ctx, filter, "id ASC", limit, offset)
}

func (r *SubmissionRepositoryImpl) applyFilter(db *gorm.DB, f models.SubmissionFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.GateID != nil {
		db = db.Where("gate_id = ?", *f.GateID)
	}
	if f.Email != nil {
		db = db.Where("email = ?", *f.Email)
	}
	if f.DownloadCompleted != nil {
		db = db.Where("download_completed = ?", *f.DownloadCompleted)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *SubmissionRepositoryImpl) ByFilter(ctx context.Context, filter models.SubmissionFilter, orderBy string, limit, offset int) ([]*models.Submission, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Submission{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Submission
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SubmissionRepositoryImpl) Count(ctx context.Context, filter models.SubmissionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Submission{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubmissionRepositoryImpl) Exists(ctx context.Context, filter models.SubmissionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// MarkStep performs the monotonic false->true flag transition. The guard in
// the WHERE clause makes the first write win under concurrent callbacks; a
// repeat call matches zero rows and reports already-tracked via false.
func (r *SubmissionRepositoryImpl) MarkStep(ctx context.Context, submissionID uint, step models.Step, at time.Time) (bool, error) {
	flagCol, atCol, err := stepColumns(step)
	if err != nil {
		return false, err
	}

	db := r.getDB(ctx)
	res := db.Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Where(fmt.Sprintf("%s IS NOT TRUE", flagCol)).
		Updates(map[string]any{
			flagCol:      true,
			atCol:        at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkDownloaded flips download_completed once; later calls leave the original
// timestamp untouched.
func (r *SubmissionRepositoryImpl) MarkDownloaded(ctx context.Context, submissionID uint, at time.Time) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Where("download_completed IS NOT TRUE").
		Updates(map[string]any{
			"download_completed": true,
			"downloaded_at":      at,
			"updated_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
