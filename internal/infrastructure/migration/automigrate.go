package migration

import (
	"fmt"

	"gorm.io/gorm"

	"evalia/internal/infrastructure/persistence/models"
	"evalia/internal/shared/constants"
	"evalia/internal/shared/logger"
)

// GormAutoMigrateStrategy implements migration using GORM AutoMigrate.
// Development-only: it cannot create the balance summary view, so it
// creates it with raw SQL after migrating the tables.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

// NewGormAutoMigrateStrategy creates a new GORM AutoMigrate strategy
func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

// Migrate runs GORM AutoMigrate over the given models
func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	s.logger.Infow("starting GORM auto migration", "models_count", len(models))

	if err := db.AutoMigrate(models...); err != nil {
		s.logger.Errorw("auto migration failed", "error", err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := s.ensureBalanceSummaryView(db); err != nil {
		return err
	}

	s.logger.Infow("auto migration completed successfully")
	return nil
}

// GetName returns the strategy name
func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

func (s *GormAutoMigrateStrategy) ensureBalanceSummaryView(db *gorm.DB) error {
	dropSQL := fmt.Sprintf("DROP VIEW IF EXISTS %s", constants.ViewCreditBalanceSummaries)
	if err := db.Exec(dropSQL).Error; err != nil {
		return fmt.Errorf("failed to drop balance summary view: %w", err)
	}

	createSQL := fmt.Sprintf(`
CREATE VIEW %s AS
SELECT
    u.subject_id,
    u.total_granted,
    u.total_consumed,
    u.is_unlimited,
    u.plan_type,
    COALESCE(l.entry_count, 0) AS entry_count,
    l.last_activity_at
FROM %s u
LEFT JOIN (
    SELECT subject_id, COUNT(*) AS entry_count, MAX(created_at) AS last_activity_at
    FROM %s
    GROUP BY subject_id
) l ON l.subject_id = u.subject_id
WHERE u.active = 1`,
		constants.ViewCreditBalanceSummaries,
		constants.TableUsageControls,
		constants.TableLedgerEntries)

	if err := db.Exec(createSQL).Error; err != nil {
		s.logger.Errorw("failed to create balance summary view", "error", err)
		return fmt.Errorf("failed to create balance summary view: %w", err)
	}
	return nil
}

// AutoMigrateModels returns all models managed by auto migration
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UsageControlModel{},
		&models.LedgerEntryModel{},
	}
}
