package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"evalia/internal/domain/credit"
	"evalia/internal/infrastructure/persistence/models"
	"evalia/internal/shared/db"
	"evalia/internal/shared/logger"
)

// LedgerEntryRepositoryImpl implements the credit.LedgerEntryRepository
// interface on GORM. The ledger is append-only: entries are never updated,
// and the only delete path is the administrative DeleteBySubject.
type LedgerEntryRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewLedgerEntryRepository creates a new ledger entry repository instance
func NewLedgerEntryRepository(db *gorm.DB, logger logger.Interface) credit.LedgerEntryRepository {
	return &LedgerEntryRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Append writes a new immutable entry
func (r *LedgerEntryRepositoryImpl) Append(ctx context.Context, entry *credit.LedgerEntry) error {
	model, err := r.toModel(entry)
	if err != nil {
		return err
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to append ledger entry",
			"subject_id", entry.SubjectID(),
			"kind", entry.Kind(),
			"delta", entry.Delta(),
			"error", err)
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := entry.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set ledger entry ID: %w", err)
	}

	r.logger.Debugw("ledger entry appended",
		"id", model.ID,
		"subject_id", model.SubjectID,
		"kind", model.Kind,
		"delta", model.Delta)
	return nil
}

// ListBySubject returns entries for a subject, most recent first
func (r *LedgerEntryRepositoryImpl) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*credit.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list ledger entries", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return r.toEntities(rows)
}

// ListRecent returns the most recent entries across all subjects
func (r *LedgerEntryRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*credit.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	err := db.GetTxFromContext(ctx, r.db).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list recent ledger entries", "error", err)
		return nil, fmt.Errorf("failed to list recent ledger entries: %w", err)
	}
	return r.toEntities(rows)
}

// SumBySubject recomputes per-kind totals from the ledger. Grants count
// positive deltas of grant and adjustment entries; consumption counts the
// magnitudes of consume, removal, and negative adjustment entries. The
// result must equal the denormalized counters when the two are in sync.
func (r *LedgerEntryRepositoryImpl) SumBySubject(ctx context.Context, subjectID string) (credit.LedgerTotals, error) {
	var row struct {
		Granted  int64
		Consumed int64
	}
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.LedgerEntryModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) AS granted, "+
				"COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) AS consumed").
		Where("subject_id = ?", subjectID).
		Scan(&row).Error
	if err != nil {
		r.logger.Errorw("failed to sum ledger entries", "subject_id", subjectID, "error", err)
		return credit.LedgerTotals{}, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	return credit.LedgerTotals{
		Granted:  uint(row.Granted),
		Consumed: uint(row.Consumed),
	}, nil
}

// DeleteBySubject removes all entries for a subject
func (r *LedgerEntryRepositoryImpl) DeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Where("subject_id = ?", subjectID).
		Delete(&models.LedgerEntryModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete ledger entries", "subject_id", subjectID, "error", result.Error)
		return 0, fmt.Errorf("failed to delete ledger entries: %w", result.Error)
	}

	r.logger.Infow("ledger entries deleted",
		"subject_id", subjectID,
		"count", result.RowsAffected)
	return result.RowsAffected, nil
}

func (r *LedgerEntryRepositoryImpl) toModel(entry *credit.LedgerEntry) (*models.LedgerEntryModel, error) {
	var metadata datatypes.JSON
	if len(entry.Metadata()) > 0 {
		raw, err := json.Marshal(entry.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ledger metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	correlation := entry.Correlation()
	return &models.LedgerEntryModel{
		ID:         entry.ID(),
		SubjectID:  entry.SubjectID(),
		Delta:      entry.Delta(),
		Kind:       entry.Kind().String(),
		Reason:     entry.Reason(),
		PatientRef: correlation.PatientRef,
		SessionRef: correlation.SessionRef,
		ReportRef:  correlation.ReportRef,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt(),
	}, nil
}

func (r *LedgerEntryRepositoryImpl) toEntities(rows []models.LedgerEntryModel) ([]*credit.LedgerEntry, error) {
	entries := make([]*credit.LedgerEntry, 0, len(rows))
	for i := range rows {
		entry, err := r.toEntity(&rows[i])
		if err != nil {
			r.logger.Errorw("failed to reconstruct ledger entry", "id", rows[i].ID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *LedgerEntryRepositoryImpl) toEntity(model *models.LedgerEntryModel) (*credit.LedgerEntry, error) {
	var metadata map[string]any
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
		}
	}

	return credit.ReconstructLedgerEntry(
		model.ID,
		model.SubjectID,
		model.Delta,
		credit.EntryKind(model.Kind),
		model.Reason,
		credit.Correlation{
			PatientRef: model.PatientRef,
			SessionRef: model.SessionRef,
			ReportRef:  model.ReportRef,
		},
		metadata,
		model.CreatedAt,
	)
}
