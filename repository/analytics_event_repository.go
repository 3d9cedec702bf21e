package repository

import (
	"context"
	"errors"

	"github.com/fangate/fangate/models"
	"gorm.io/gorm"
)

// AnalyticsEventRepositoryImpl implements AnalyticsEventRepository
type AnalyticsEventRepositoryImpl struct {
	*BaseRepository[models.AnalyticsEvent, models.AnalyticsEventFilter]
}

func NewAnalyticsEventRepository(db *gorm.DB) AnalyticsEventRepository {
	return &AnalyticsEventRepositoryImpl{BaseRepository: NewBaseRepository[models.AnalyticsEvent, models.AnalyticsEventFilter](db)}
}

func (r *AnalyticsEventRepositoryImpl) ByID(ctx context.Context, id uint) (*models.AnalyticsEvent, error) {
	db := r.getDB(ctx)
	var row models.AnalyticsEvent
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *AnalyticsEventRepositoryImpl) applyFilter(db *gorm.DB, f models.AnalyticsEventFilter) *gorm.DB {
	if f.GateID != nil {
		db = db.Where("gate_id = ?", *f.GateID)
	}
	if f.EventType != nil {
		db = db.Where("event_type = ?", *f.EventType)
	}
	if f.UtmSource != nil {
		db = db.Where("utm_source = ?", *f.UtmSource)
	}
	if f.UtmCampaign != nil {
		db = db.Where("utm_campaign = ?", *f.UtmCampaign)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *AnalyticsEventRepositoryImpl) ByFilter(ctx context.Context, filter models.AnalyticsEventFilter, orderBy string, limit, offset int) ([]*models.AnalyticsEvent, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnalyticsEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.AnalyticsEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnalyticsEventRepositoryImpl) Count(ctx context.Context, filter models.AnalyticsEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnalyticsEvent{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnalyticsEventRepositoryImpl) Exists(ctx context.Context, filter models.AnalyticsEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// CountByType groups one gate's events by type in a single query so aggregate
// reads stay cheap even on large logs.
func (r *AnalyticsEventRepositoryImpl) CountByType(ctx context.Context, gateID uint) (map[string]int64, error) {
	db := r.getDB(ctx)

	type typeCount struct {
		EventType string
		Total     int64
	}
	var rows []typeCount
	err := db.Model(&models.AnalyticsEvent{}).
		Select("event_type, COUNT(*) AS total").
		Where("gate_id = ?", gateID).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Total
	}
	return counts, nil
}
