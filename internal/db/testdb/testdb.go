// Package testdb provides an in-memory database for repository and service
// tests. The schema is declared by hand: the production column defaults
// (uuid_generate_v4, now()) are Postgres functions SQLite cannot evaluate,
// and every code path assigns ids and timestamps explicitly anyway.
package testdb

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE sample_point (
		id TEXT PRIMARY KEY,
		tag_number TEXT NOT NULL,
		fpso_name TEXT NOT NULL,
		fluid_type TEXT,
		analysis_type TEXT,
		classification TEXT,
		local TEXT NOT NULL DEFAULT 'Onshore',
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE sample (
		id TEXT PRIMARY KEY,
		sample_id TEXT NOT NULL UNIQUE,
		type TEXT,
		status TEXT NOT NULL DEFAULT 'Planned',
		responsible TEXT,
		sample_point_id TEXT NOT NULL REFERENCES sample_point(id),
		osm_id TEXT,
		laudo_number TEXT,
		mitigated BOOLEAN NOT NULL DEFAULT 0,
		planned_date DATETIME,
		sampling_date DATETIME,
		disembark_expected_date DATETIME,
		disembark_date DATETIME,
		lab_expected_date DATETIME,
		delivery_date DATETIME,
		report_expected_date DATETIME,
		report_issue_date DATETIME,
		fc_expected_date DATETIME,
		fc_update_date DATETIME,
		due_date DATETIME,
		validation_status TEXT,
		lab_report_url TEXT,
		notes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE sample_result (
		id TEXT PRIMARY KEY,
		sample_id TEXT NOT NULL REFERENCES sample(id) ON DELETE CASCADE,
		parameter TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT,
		status TEXT NOT NULL,
		detail TEXT,
		history_mean REAL,
		history_std REAL,
		lower_bound REAL,
		upper_bound REAL,
		history_values TEXT,
		history_dates TEXT,
		boletim TEXT,
		lab_report_url TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE sample_status_history (
		id TEXT PRIMARY KEY,
		sample_id TEXT NOT NULL REFERENCES sample(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		comments TEXT,
		changed_by TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE alert (
		id TEXT PRIMARY KEY,
		sample_id TEXT NOT NULL REFERENCES sample(id) ON DELETE CASCADE,
		severity TEXT NOT NULL DEFAULT 'Warning',
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		acknowledged BOOLEAN NOT NULL DEFAULT 0,
		acknowledged_by TEXT,
		acknowledged_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns an isolated in-memory database with the full schema applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// A single connection keeps every session on the same in-memory store.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("apply test schema: %v", err)
		}
	}
	return db
}
