package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS staff (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'COLLECTOR'
);`,
		`CREATE TABLE IF NOT EXISTS collections (
  id TEXT PRIMARY KEY,
  farmer_id TEXT NOT NULL,
  staff_id TEXT NOT NULL,
  collection_date DATETIME NOT NULL,
  liters REAL NOT NULL,
  status TEXT NOT NULL DEFAULT 'Collected',
  approved_for_company INTEGER NOT NULL DEFAULT 0,
  company_approval_id TEXT,
  approved_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS milk_approvals (
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL,
  staff_id TEXT NOT NULL,
  collector_id TEXT NOT NULL,
  company_received_liters REAL NOT NULL,
  variance_liters REAL NOT NULL,
  variance_percentage REAL NOT NULL,
  variance_type TEXT NOT NULL,
  penalty_amount REAL NOT NULL DEFAULT 0,
  is_acknowledged INTEGER NOT NULL DEFAULT 0,
  approval_notes TEXT,
  approved_at DATETIME NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS collector_payments (
  id TEXT PRIMARY KEY,
  collector_id TEXT NOT NULL,
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  total_collections INTEGER NOT NULL,
  total_liters REAL NOT NULL,
  rate_per_liter REAL NOT NULL,
  total_earnings REAL NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  paid_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS variance_alert_thresholds (
  id TEXT PRIMARY KEY,
  variance_type TEXT NOT NULL,
  threshold_percentage REAL NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1
);`,
		`CREATE TABLE IF NOT EXISTS variance_penalty_config (
  id TEXT PRIMARY KEY,
  variance_type TEXT NOT NULL,
  min_variance_percentage REAL NOT NULL,
  max_variance_percentage REAL NOT NULL,
  penalty_rate_per_liter REAL NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
