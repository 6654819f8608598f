package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'collection_status') THEN
			CREATE TYPE collection_status AS ENUM ('Collected', 'Approved', 'Paid');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'variance_type') THEN
			CREATE TYPE variance_type AS ENUM ('positive', 'negative', 'none');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN
			CREATE TYPE payment_status AS ENUM ('pending', 'paid');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS farmers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		full_name VARCHAR(255) NOT NULL,
		phone VARCHAR(32),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		full_name VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS collections (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		farmer_id UUID NOT NULL REFERENCES farmers(id),
		staff_id UUID NOT NULL REFERENCES staff(id),
		collection_date DATE NOT NULL,
		liters NUMERIC(10,2) NOT NULL CHECK (liters > 0),
		status collection_status NOT NULL DEFAULT 'Collected',
		approved_for_company BOOLEAN NOT NULL DEFAULT FALSE,
		company_approval_id UUID,
		approved_by UUID REFERENCES staff(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_collections_staff_date ON collections (staff_id, collection_date);`,
	`CREATE INDEX IF NOT EXISTS idx_collections_status ON collections (status);`,
	`CREATE TABLE IF NOT EXISTS milk_approvals (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		collection_id UUID NOT NULL REFERENCES collections(id),
		staff_id UUID NOT NULL REFERENCES staff(id),
		collector_id UUID NOT NULL REFERENCES staff(id),
		company_received_liters NUMERIC(10,2) NOT NULL,
		variance_liters NUMERIC(10,3) NOT NULL,
		variance_percentage NUMERIC(7,2) NOT NULL,
		variance_type variance_type NOT NULL,
		penalty_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (penalty_amount >= 0),
		is_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
		approval_notes TEXT,
		approved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_milk_approvals_collection_id ON milk_approvals (collection_id);`,
	`CREATE INDEX IF NOT EXISTS idx_milk_approvals_collector_id ON milk_approvals (collector_id);`,
	`CREATE TABLE IF NOT EXISTS collector_payments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		collector_id UUID NOT NULL REFERENCES staff(id),
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		total_collections BIGINT NOT NULL,
		total_liters NUMERIC(12,2) NOT NULL,
		rate_per_liter NUMERIC(10,2) NOT NULL,
		total_earnings NUMERIC(14,2) NOT NULL,
		status payment_status NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		paid_at TIMESTAMPTZ,
		CHECK (period_start <= period_end)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_collector_payments_collector_id ON collector_payments (collector_id);`,
	`CREATE INDEX IF NOT EXISTS idx_collector_payments_status ON collector_payments (status);`,
	`CREATE TABLE IF NOT EXISTS variance_alert_thresholds (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		variance_type variance_type NOT NULL UNIQUE,
		threshold_percentage NUMERIC(5,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`INSERT INTO variance_alert_thresholds (variance_type, threshold_percentage)
	VALUES ('positive', 5.00), ('negative', 5.00)
	ON CONFLICT (variance_type) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS variance_penalty_config (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		variance_type variance_type NOT NULL,
		min_variance_percentage NUMERIC(5,2) NOT NULL,
		max_variance_percentage NUMERIC(5,2) NOT NULL,
		penalty_rate_per_liter NUMERIC(10,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		CHECK (min_variance_percentage <= max_variance_percentage)
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM variance_penalty_config) THEN
			INSERT INTO variance_penalty_config
				(variance_type, min_variance_percentage, max_variance_percentage, penalty_rate_per_liter)
			VALUES
				('negative', 5.00, 10.00, 10.00),
				('negative', 10.00, 15.00, 20.00),
				('negative', 15.00, 100.00, 40.00),
				('positive', 5.00, 10.00, 5.00),
				('positive', 10.00, 100.00, 10.00);
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
