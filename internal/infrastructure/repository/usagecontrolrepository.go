package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evalia/internal/domain/credit"
	"evalia/internal/infrastructure/persistence/models"
	"evalia/internal/shared/db"
	"evalia/internal/shared/logger"
)

// UsageControlRepositoryImpl implements the credit.UsageControlRepository
// interface on GORM. All methods honor a transaction carried in ctx so the
// application layer can combine a balance mutation with its ledger entry.
type UsageControlRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUsageControlRepository creates a new usage control repository instance
func NewUsageControlRepository(db *gorm.DB, logger logger.Interface) credit.UsageControlRepository {
	return &UsageControlRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// lockForUpdate adds FOR UPDATE to reads running inside a mutation
// transaction. Grant and removal read a snapshot, mutate it in memory and
// write absolute counters back; without the row lock a consume committing
// in between would be overwritten. sqlite has no FOR UPDATE in its
// grammar; its single writer already serializes that interleaving.
func lockForUpdate(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if !db.InTransaction(ctx) || tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GetBySubject returns the active usage control for a subject
func (r *UsageControlRepositoryImpl) GetBySubject(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	var model models.UsageControlModel
	err := lockForUpdate(ctx, db.GetTxFromContext(ctx, r.db)).
		Where("subject_id = ? AND active = ?", subjectID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, credit.ErrControlNotFound
		}
		r.logger.Errorw("failed to get usage control", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to get usage control: %w", err)
	}

	return r.toEntity(&model)
}

// GetBySubjectIncludingInactive returns the control row regardless of its
// active flag, for grant-time reactivation
func (r *UsageControlRepositoryImpl) GetBySubjectIncludingInactive(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	var model models.UsageControlModel
	err := lockForUpdate(ctx, db.GetTxFromContext(ctx, r.db)).
		Where("subject_id = ?", subjectID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, credit.ErrControlNotFound
		}
		r.logger.Errorw("failed to get usage control", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to get usage control: %w", err)
	}

	return r.toEntity(&model)
}

// Save upserts the usage control row
func (r *UsageControlRepositoryImpl) Save(ctx context.Context, control *credit.UsageControl) error {
	tx := db.GetTxFromContext(ctx, r.db)
	model := r.toModel(control)

	if control.ID() == 0 {
		if err := tx.Create(model).Error; err != nil {
			r.logger.Errorw("failed to create usage control",
				"subject_id", control.SubjectID(),
				"error", err)
			return fmt.Errorf("failed to create usage control: %w", err)
		}
		if err := control.SetID(model.ID); err != nil {
			return fmt.Errorf("failed to set usage control ID: %w", err)
		}
		r.logger.Infow("usage control created",
			"id", model.ID,
			"subject_id", model.SubjectID,
			"plan_type", model.PlanType)
		return nil
	}

	result := tx.Model(&models.UsageControlModel{}).
		Where("id = ?", control.ID()).
		Updates(map[string]interface{}{
			"total_granted":  control.TotalGranted(),
			"total_consumed": control.TotalConsumed(),
			"is_unlimited":   control.IsUnlimited(),
			"plan_type":      control.PlanType().String(),
			"active":         control.IsActive(),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update usage control",
			"id", control.ID(),
			"subject_id", control.SubjectID(),
			"error", result.Error)
		return fmt.Errorf("failed to update usage control: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return credit.ErrControlNotFound
	}
	return nil
}

// ConsumeOne performs the atomic check-and-increment. The conditional
// UPDATE re-verifies remaining > 0 in the same statement that increments
// total_consumed, so concurrent racers on the last credit serialize at the
// row lock and exactly one matches.
func (r *UsageControlRepositoryImpl) ConsumeOne(ctx context.Context, subjectID string) (*credit.ConsumeResult, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.UsageControlModel{}).
		Where("subject_id = ? AND active = ? AND is_unlimited = ? AND total_consumed < total_granted",
			subjectID, true, false).
		Updates(map[string]interface{}{
			"total_consumed": gorm.Expr("total_consumed + ?", 1),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to consume credit", "subject_id", subjectID, "error", result.Error)
		return nil, fmt.Errorf("failed to consume credit: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// distinguish "no row" from "row exists but exhausted"
		var model models.UsageControlModel
		err := tx.Where("subject_id = ? AND active = ?", subjectID, true).First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, credit.ErrControlNotFound
			}
			return nil, fmt.Errorf("failed to inspect usage control: %w", err)
		}
		if model.IsUnlimited {
			control, cerr := r.toEntity(&model)
			if cerr != nil {
				return nil, cerr
			}
			return &credit.ConsumeResult{Control: control, Remaining: nil}, nil
		}
		return nil, credit.ErrBalanceConflict
	}

	var model models.UsageControlModel
	if err := tx.Where("subject_id = ? AND active = ?", subjectID, true).First(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to reload usage control: %w", err)
	}
	control, err := r.toEntity(&model)
	if err != nil {
		return nil, err
	}

	return &credit.ConsumeResult{Control: control, Remaining: control.Remaining()}, nil
}

// ListActive returns all active controls ordered by subject ID
func (r *UsageControlRepositoryImpl) ListActive(ctx context.Context) ([]*credit.UsageControl, error) {
	var rows []models.UsageControlModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("active = ?", true).
		Order("subject_id ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list usage controls", "error", err)
		return nil, fmt.Errorf("failed to list usage controls: %w", err)
	}

	controls := make([]*credit.UsageControl, 0, len(rows))
	for i := range rows {
		control, cerr := r.toEntity(&rows[i])
		if cerr != nil {
			r.logger.Errorw("failed to reconstruct usage control",
				"id", rows[i].ID,
				"error", cerr)
			continue
		}
		controls = append(controls, control)
	}
	return controls, nil
}

func (r *UsageControlRepositoryImpl) toModel(control *credit.UsageControl) *models.UsageControlModel {
	return &models.UsageControlModel{
		ID:            control.ID(),
		SubjectID:     control.SubjectID(),
		TotalGranted:  control.TotalGranted(),
		TotalConsumed: control.TotalConsumed(),
		IsUnlimited:   control.IsUnlimited(),
		PlanType:      control.PlanType().String(),
		Active:        control.IsActive(),
		CreatedAt:     control.CreatedAt(),
		UpdatedAt:     control.UpdatedAt(),
	}
}

func (r *UsageControlRepositoryImpl) toEntity(model *models.UsageControlModel) (*credit.UsageControl, error) {
	control, err := credit.ReconstructUsageControl(
		model.ID,
		model.SubjectID,
		model.TotalGranted,
		model.TotalConsumed,
		model.IsUnlimited,
		credit.PlanType(model.PlanType),
		model.Active,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct usage control: %w", err)
	}
	return control, nil
}
