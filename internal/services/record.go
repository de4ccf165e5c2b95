package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vistoriatec/vistoria-backend/internal/catalog"
	"github.com/vistoriatec/vistoria-backend/internal/dates"
	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/repos"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

// RecordInput is the validated-form payload for create and update. Tag and
// NextInspectionDate are always derived server-side; callers cannot set them.
type RecordInput struct {
	Platform      string
	Module        string
	Sector        string
	EquipmentType string
	EquipmentSeq  int

	Defect         string
	Cause          string
	RTICategory    string
	Recommendation string
	DamageType     string

	InspectionDate time.Time
	Notes          string

	// PhotoPath points at a source upload to validate and process on the
	// write path. Empty keeps the current photo on update.
	PhotoPath string
	// RemovePhoto drops the current photo reference on update.
	RemovePhoto bool
}

// ListOptions is the caller-facing subset of the repo filter; the service
// supplies the clock and warning window.
type ListOptions struct {
	Status                types.Status
	EquipmentType         string
	DateFrom              time.Time
	DateTo                time.Time
	OrderByInspectionDesc bool
}

type RecordService interface {
	Create(ctx context.Context, input RecordInput) (*types.InspectionRecord, error)
	Update(ctx context.Context, id uint, input RecordInput) (*types.InspectionRecord, error)
	Get(ctx context.Context, id uint) (*types.InspectionRecord, error)
	List(ctx context.Context, opts ListOptions) ([]*types.InspectionRecord, error)
	SoftDelete(ctx context.Context, id uint) error
	History(ctx context.Context, id uint) ([]*types.InspectionChange, error)
}

type recordService struct {
	db          *gorm.DB
	log         *logger.Logger
	cat         *catalog.Catalog
	inspections repos.InspectionRepo
	changes     repos.InspectionChangeRepo
	photos      PhotoService

	warningWindowDays int
	now               func() time.Time
}

func NewRecordService(
	db *gorm.DB,
	log *logger.Logger,
	cat *catalog.Catalog,
	inspections repos.InspectionRepo,
	changes repos.InspectionChangeRepo,
	photos PhotoService,
	warningWindowDays int,
) RecordService {
	serviceLog := log.With("service", "RecordService")
	return &recordService{
		db:                db,
		log:               serviceLog,
		cat:               cat,
		inspections:       inspections,
		changes:           changes,
		photos:            photos,
		warningWindowDays: warningWindowDays,
		now:               time.Now,
	}
}

func (s *recordService) Create(ctx context.Context, input RecordInput) (*types.InspectionRecord, error) {
	rec := &types.InspectionRecord{}
	if err := s.applyInput(rec, input); err != nil {
		return nil, err
	}

	photoWritten := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.inspections.Create(ctx, tx, rec); err != nil {
			return err
		}

		if input.PhotoPath != "" {
			result, err := s.photos.Process(rec.ID, input.PhotoPath)
			if err != nil {
				return err
			}
			photoWritten = true
			rec.PhotoPath = result.OriginalPath
			rec.PhotoOptimizedPath = result.OptimizedPath
			rec.PhotoThumbPath = result.ThumbnailPath
			if err := s.inspections.Update(ctx, tx, rec); err != nil {
				return err
			}
		}

		return s.appendChange(ctx, tx, rec.ID, types.ChangeActionCreate, nil, rec)
	})
	if err != nil {
		// Photo files were written before commit; the rollback removed the
		// row, so drop the files too.
		if photoWritten {
			if rmErr := s.photos.Remove(rec.ID); rmErr != nil {
				s.log.Warn("failed to clean up photo files after rollback", "recordID", rec.ID, "error", rmErr)
			}
		}
		return nil, err
	}

	s.populateStatus(rec)
	s.log.Info("Inspection record created", "recordID", rec.ID, "tag", rec.Tag)
	return rec, nil
}

func (s *recordService) Update(ctx context.Context, id uint, input RecordInput) (*types.InspectionRecord, error) {
	var updated *types.InspectionRecord
	photoStaged := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		prior, err := s.inspections.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		rec := *prior
		if err := s.applyInput(&rec, input); err != nil {
			return err
		}

		switch {
		case input.PhotoPath != "":
			// Staged beside the live artifacts; the swap happens only after
			// commit, so a rollback cannot clobber the current photo.
			result, err := s.photos.Stage(rec.ID, input.PhotoPath)
			if err != nil {
				return err
			}
			photoStaged = true
			rec.PhotoPath = result.OriginalPath
			rec.PhotoOptimizedPath = result.OptimizedPath
			rec.PhotoThumbPath = result.ThumbnailPath
		case input.RemovePhoto:
			rec.PhotoPath = ""
			rec.PhotoOptimizedPath = ""
			rec.PhotoThumbPath = ""
		}

		if err := s.inspections.Update(ctx, tx, &rec); err != nil {
			return err
		}
		if err := s.appendChange(ctx, tx, rec.ID, types.ChangeActionUpdate, prior, &rec); err != nil {
			return err
		}
		updated = &rec
		return nil
	})
	if err != nil {
		if photoStaged {
			if rmErr := s.photos.DiscardStaged(id); rmErr != nil {
				s.log.Warn("failed to discard staged photo files after rollback", "recordID", id, "error", rmErr)
			}
		}
		return nil, err
	}
	if photoStaged {
		if err := s.photos.Promote(id); err != nil {
			return nil, err
		}
	}

	s.populateStatus(updated)
	s.log.Info("Inspection record updated", "recordID", updated.ID, "tag", updated.Tag)
	return updated, nil
}

func (s *recordService) Get(ctx context.Context, id uint) (*types.InspectionRecord, error) {
	rec, err := s.inspections.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	s.populateStatus(rec)
	return rec, nil
}

func (s *recordService) List(ctx context.Context, opts ListOptions) ([]*types.InspectionRecord, error) {
	switch opts.Status {
	case "", types.StatusOK, types.StatusDueSoon, types.StatusOverdue:
	default:
		return nil, types.NewValidationError("status", fmt.Sprintf("unknown value %q", opts.Status))
	}

	filter := repos.ListFilter{
		Status:                opts.Status,
		EquipmentType:         opts.EquipmentType,
		DateFrom:              opts.DateFrom,
		DateTo:                opts.DateTo,
		Today:                 dates.Truncate(s.now()),
		WarningWindowDays:     s.warningWindowDays,
		OrderByInspectionDesc: opts.OrderByInspectionDesc,
	}

	results, err := s.inspections.List(ctx, nil, filter)
	if err != nil {
		return nil, err
	}
	for _, rec := range results {
		s.populateStatus(rec)
	}
	return results, nil
}

func (s *recordService) SoftDelete(ctx context.Context, id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		prior, err := s.inspections.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.inspections.SoftDeleteByID(ctx, tx, id); err != nil {
			return err
		}
		// Photo files stay on disk; the history row still references them.
		return s.appendChange(ctx, tx, id, types.ChangeActionSoftDelete, prior, nil)
	})
	if err != nil {
		return err
	}
	s.log.Info("Inspection record soft deleted", "recordID", id)
	return nil
}

func (s *recordService) History(ctx context.Context, id uint) ([]*types.InspectionChange, error) {
	changes, err := s.changes.ListByInspectionID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		// No history means the id never existed.
		if _, err := s.inspections.GetByID(ctx, nil, id); err != nil {
			return nil, err
		}
	}
	return changes, nil
}

// applyInput validates every field against the catalog, validates the
// inspection date and recomputes the derived fields. Nothing is written when
// it fails.
func (s *recordService) applyInput(rec *types.InspectionRecord, input RecordInput) error {
	if !s.cat.HasPlatform(input.Platform) {
		return types.NewValidationError("platform", fmt.Sprintf("unknown value %q", input.Platform))
	}
	if !s.cat.HasModule(input.Module) {
		return types.NewValidationError("module", fmt.Sprintf("unknown value %q", input.Module))
	}
	if !s.cat.HasSector(input.Sector) {
		return types.NewValidationError("sector", fmt.Sprintf("unknown value %q", input.Sector))
	}
	if !s.cat.HasEquipmentType(input.EquipmentType) {
		return types.NewValidationError("equipment_type", fmt.Sprintf("unknown value %q", input.EquipmentType))
	}
	if !s.cat.HasDefect(input.Defect) {
		return types.NewValidationError("defect", fmt.Sprintf("unknown value %q", input.Defect))
	}
	if !s.cat.HasCause(input.Cause) {
		return types.NewValidationError("cause", fmt.Sprintf("unknown value %q", input.Cause))
	}
	if !s.cat.HasRTICategory(input.RTICategory) {
		return types.NewValidationError("rti_category", fmt.Sprintf("unknown value %q", input.RTICategory))
	}
	if !s.cat.HasRecommendation(input.Recommendation) {
		return types.NewValidationError("recommendation", fmt.Sprintf("unknown value %q", input.Recommendation))
	}
	if !s.cat.HasDamageType(input.DamageType) {
		return types.NewValidationError("damage_type", fmt.Sprintf("unknown value %q", input.DamageType))
	}

	today := dates.Truncate(s.now())
	if err := dates.ValidateInspectionDate(input.InspectionDate, today); err != nil {
		return err
	}

	tag, err := s.cat.Tag(input.Platform, input.Module, input.Sector, input.EquipmentType, input.EquipmentSeq)
	if err != nil {
		return types.NewValidationError("tag", err.Error())
	}
	validityDays, err := s.cat.ValidityDays(input.EquipmentType)
	if err != nil {
		return types.NewValidationError("equipment_type", err.Error())
	}

	rec.Platform = input.Platform
	rec.Module = input.Module
	rec.Sector = input.Sector
	rec.EquipmentType = input.EquipmentType
	rec.EquipmentSeq = input.EquipmentSeq
	rec.Tag = tag
	rec.Defect = input.Defect
	rec.Cause = input.Cause
	rec.RTICategory = input.RTICategory
	rec.Recommendation = input.Recommendation
	rec.DamageType = input.DamageType
	rec.InspectionDate = dates.Truncate(input.InspectionDate)
	rec.NextInspectionDate = dates.NextInspection(input.InspectionDate, validityDays)
	rec.Notes = input.Notes
	return nil
}

func (s *recordService) appendChange(ctx context.Context, tx *gorm.DB, recordID uint, action string, prior, current *types.InspectionRecord) error {
	change := &types.InspectionChange{
		InspectionID: recordID,
		Action:       action,
		ChangedAt:    s.now(),
	}
	if prior != nil {
		raw, err := json.Marshal(prior)
		if err != nil {
			return fmt.Errorf("marshal prior snapshot: %w", err)
		}
		change.PriorValues = raw
	}
	if current != nil {
		raw, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal new snapshot: %w", err)
		}
		change.NewValues = raw
	}
	return s.changes.Append(ctx, tx, change)
}

func (s *recordService) populateStatus(rec *types.InspectionRecord) {
	rec.Status = dates.Status(dates.Truncate(s.now()), rec.NextInspectionDate, s.warningWindowDays)
}

// IsNotFound reports whether err is the missing-record failure mode.
func IsNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
