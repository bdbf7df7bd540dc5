package migration

import (
	"context"

	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"gorm.io/gorm"
)

// AddCycleColumnsToUsers is a migration to add billing cycle columns to the users table
type AddCycleColumnsToUsers struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAddCycleColumnsToUsers creates a new migration instance
func NewAddCycleColumnsToUsers(db *gorm.DB, logger coreport.Logger) *AddCycleColumnsToUsers {
	return &AddCycleColumnsToUsers{
		db:     db,
		logger: logger,
	}
}

// Run executes the migration
func (m *AddCycleColumnsToUsers) Run(ctx context.Context) error {
	m.logger.Info("Adding billing cycle columns to users table", nil)

	var hasCycleStart, hasCycleEnd bool
	if err := m.checkColumnExists(&hasCycleStart, &hasCycleEnd); err != nil {
		return err
	}

	if !hasCycleStart {
		if err := m.db.Exec(`ALTER TABLE users ADD COLUMN cycle_start TIMESTAMP NULL`).Error; err != nil {
			m.logger.Error("Failed to add cycle_start column", map[string]any{"error": err.Error()})
			return err
		}
	}

	if !hasCycleEnd {
		if err := m.db.Exec(`ALTER TABLE users ADD COLUMN cycle_end TIMESTAMP NULL`).Error; err != nil {
			m.logger.Error("Failed to add cycle_end column", map[string]any{"error": err.Error()})
			return err
		}
	}

	m.logger.Info("Successfully added billing cycle columns to users table", nil)
	return nil
}

// checkColumnExists checks if the columns already exist in the table
func (m *AddCycleColumnsToUsers) checkColumnExists(hasCycleStart, hasCycleEnd *bool) error {
	var columns []struct {
		ColumnName string `gorm:"column:column_name"`
	}

	err := m.db.Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = 'users' AND column_name IN ('cycle_start', 'cycle_end')
	`).Scan(&columns).Error
	if err != nil {
		m.logger.Error("Failed to check columns existence", map[string]any{"error": err.Error()})
		return err
	}

	for _, column := range columns {
		if column.ColumnName == "cycle_start" {
			*hasCycleStart = true
		}
		if column.ColumnName == "cycle_end" {
			*hasCycleEnd = true
		}
	}

	return nil
}
