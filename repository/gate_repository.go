package repository

import (
	"context"
	"errors"

	"github.com/fangate/fangate/models"
	"gorm.io/gorm"
)

// GateRepositoryImpl implements GateRepository
type GateRepositoryImpl struct {
	*BaseRepository[models.Gate, models.GateFilter]
}

func NewGateRepository(db *gorm.DB) GateRepository {
	return &GateRepositoryImpl{BaseRepository: NewBaseRepository[models.Gate, models.GateFilter](db)}
}

func (r *GateRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Gate, error) {
	db := r.getDB(ctx)
	var row models.Gate
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *GateRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Gate, error) {
	filter := models.GateFilter{Slug: &slug}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *GateRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Gate, error) {
	filter := models.GateFilter{UUID: &uuid}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *GateRepositoryImpl) applyFilter(db *gorm.DB, f models.GateFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Slug != nil {
		db = db.Where("slug = ?", *f.Slug)
	}
	if f.OwnerID != nil {
		db = db.Where("owner_id = ?", *f.OwnerID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *GateRepositoryImpl) ByFilter(ctx context.Context, filter models.GateFilter, orderBy string, limit, offset int) ([]*models.Gate, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Gate{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Gate
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GateRepositoryImpl) Count(ctx context.Context, filter models.GateFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Gate{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GateRepositoryImpl) Exists(ctx context.Context, filter models.GateFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// IncrementDownloads bumps download_count atomically at the row level so
// concurrent issuances never lose an increment.
func (r *GateRepositoryImpl) IncrementDownloads(ctx context.Context, gateID uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.Gate{}).
		Where("id = ?", gateID).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}
