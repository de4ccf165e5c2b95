package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

type InspectionChangeRepo interface {
	Append(ctx context.Context, tx *gorm.DB, change *types.InspectionChange) error
	ListByInspectionID(ctx context.Context, tx *gorm.DB, inspectionID uint) ([]*types.InspectionChange, error)
}

type inspectionChangeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInspectionChangeRepo(db *gorm.DB, baseLog *logger.Logger) InspectionChangeRepo {
	repoLog := baseLog.With("repo", "InspectionChangeRepo")
	return &inspectionChangeRepo{db: db, log: repoLog}
}

func (r *inspectionChangeRepo) Append(ctx context.Context, tx *gorm.DB, change *types.InspectionChange) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(change).Error; err != nil {
		return types.NewStorageError("append inspection change", err)
	}
	return nil
}

func (r *inspectionChangeRepo) ListByInspectionID(ctx context.Context, tx *gorm.DB, inspectionID uint) ([]*types.InspectionChange, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.InspectionChange
	if err := transaction.WithContext(ctx).
		Where("inspection_id = ?", inspectionID).
		Order("changed_at ASC").Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, types.NewStorageError("list inspection changes", err)
	}
	return results, nil
}
