package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
	"github.com/viniciosgnr/MMT/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "mmt", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.SamplePoint{},
		&types.Sample{},
		&types.SampleResult{},
		&types.SampleStatusHistory{},
		&types.Alert{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	stmts := []string{
		`ALTER TABLE "sample"
		 ADD CONSTRAINT "fk_sample_sample_point_id"
		 FOREIGN KEY ("sample_point_id") REFERENCES "sample_point"("id")
		 ON DELETE RESTRICT`,
		`ALTER TABLE "sample_result"
		 ADD CONSTRAINT "fk_sample_result_sample_id"
		 FOREIGN KEY ("sample_id") REFERENCES "sample"("id")
		 ON DELETE CASCADE`,
		`ALTER TABLE "sample_status_history"
		 ADD CONSTRAINT "fk_sample_status_history_sample_id"
		 FOREIGN KEY ("sample_id") REFERENCES "sample"("id")
		 ON DELETE CASCADE`,
		`ALTER TABLE "alert"
		 ADD CONSTRAINT "fk_alert_sample_id"
		 FOREIGN KEY ("sample_id") REFERENCES "sample"("id")
		 ON DELETE CASCADE`,
	}
	for _, stmt := range stmts {
		if err := s.db.Exec(stmt).Error; err != nil {
			// Re-running migrations hits "already exists"; keep going.
			s.log.Debug("FK statement skipped", "error", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
