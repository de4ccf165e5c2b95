package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

// ListFilter narrows List results. Status filtering is expressed as a range
// over next_inspection_date against Today, so it runs on the indexed column.
type ListFilter struct {
	Status            types.Status
	EquipmentType     string
	DateFrom          time.Time
	DateTo            time.Time
	Today             time.Time
	WarningWindowDays int
	// OrderByInspectionDesc switches from the default next_inspection_date
	// ascending (most urgent first) to newest inspection first.
	OrderByInspectionDesc bool
}

type InspectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.InspectionRecord) error
	Update(ctx context.Context, tx *gorm.DB, rec *types.InspectionRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.InspectionRecord, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.InspectionRecord, error)
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uint) error
}

type inspectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInspectionRepo(db *gorm.DB, baseLog *logger.Logger) InspectionRepo {
	repoLog := baseLog.With("repo", "InspectionRepo")
	return &inspectionRepo{db: db, log: repoLog}
}

func (r *inspectionRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.InspectionRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return types.NewStorageError("create inspection", err)
	}
	return nil
}

func (r *inspectionRepo) Update(ctx context.Context, tx *gorm.DB, rec *types.InspectionRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.InspectionRecord{}).
		Where("id = ?", rec.ID).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(rec)
	if result.Error != nil {
		return types.NewStorageError("update inspection", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *inspectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.InspectionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rec types.InspectionRecord
	if err := transaction.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, types.NewStorageError("get inspection", err)
	}
	return &rec, nil
}

func (r *inspectionRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.InspectionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Model(&types.InspectionRecord{})

	if filter.EquipmentType != "" {
		q = q.Where("equipment_type = ?", filter.EquipmentType)
	}
	if !filter.DateFrom.IsZero() {
		q = q.Where("inspection_date >= ?", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		q = q.Where("inspection_date <= ?", filter.DateTo)
	}
	if filter.Status != "" {
		windowEnd := filter.Today.AddDate(0, 0, filter.WarningWindowDays)
		switch filter.Status {
		case types.StatusOverdue:
			q = q.Where("next_inspection_date < ?", filter.Today)
		case types.StatusDueSoon:
			q = q.Where("next_inspection_date >= ? AND next_inspection_date <= ?", filter.Today, windowEnd)
		case types.StatusOK:
			q = q.Where("next_inspection_date > ?", windowEnd)
		}
	}

	if filter.OrderByInspectionDesc {
		q = q.Order("inspection_date DESC").Order("created_at DESC")
	} else {
		q = q.Order("next_inspection_date ASC").Order("id ASC")
	}

	var results []*types.InspectionRecord
	if err := q.Find(&results).Error; err != nil {
		return nil, types.NewStorageError("list inspections", err)
	}
	return results, nil
}

func (r *inspectionRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).Delete(&types.InspectionRecord{}, id)
	if result.Error != nil {
		return types.NewStorageError("soft delete inspection", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
