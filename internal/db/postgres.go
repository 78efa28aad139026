package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
	"github.com/jucity/ai-manager-backend/internal/utils"
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
	postgresName := utils.GetEnv("POSTGRES_NAME", "jucity", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
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
		&types.Park{},
		&types.ParkContact{},
		&types.ParkLocation{},
		&types.OpeningHour{},
		&types.TransportNote{},
		&types.SitePage{},
		&types.LegalDocument{},
		&types.Promotion{},
		&types.FAQEntry{},
		&types.FactsVersion{},
		&types.ParkPublishedState{},
		&types.Lead{},
		&types.KBSource{},
		&types.KBIndexJob{},
		&types.KBIndex{},
		&types.ChangeLog{},
		&types.EventLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring constraints for postgres tables...")
	type fk struct {
		table, name, column, refTable string
	}
	fks := []fk{
		{"park_contact", "fk_park_contact_park_id", "park_id", "park"},
		{"park_location", "fk_park_location_park_id", "park_id", "park"},
		{"park_opening_hour", "fk_park_opening_hour_park_id", "park_id", "park"},
		{"park_transport", "fk_park_transport_park_id", "park_id", "park"},
		{"site_page", "fk_site_page_park_id", "park_id", "park"},
		{"legal_document", "fk_legal_document_park_id", "park_id", "park"},
		{"promotion", "fk_promotion_park_id", "park_id", "park"},
		{"faq_entry", "fk_faq_entry_park_id", "park_id", "park"},
		{"facts_version", "fk_facts_version_park_id", "park_id", "park"},
		{"lead", "fk_lead_park_id", "park_id", "park"},
		{"kb_source", "fk_kb_source_park_id", "park_id", "park"},
		{"kb_index_job", "fk_kb_index_job_park_id", "park_id", "park"},
		{"kb_index", "fk_kb_index_park_id", "park_id", "park"},
	}
	for _, c := range fks {
		if err := s.db.Exec(fmt.Sprintf(`
			ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q;
		`, c.table, c.name)).Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", c.name, err)
		}
		if err := s.db.Exec(fmt.Sprintf(`
			ALTER TABLE %q
			ADD CONSTRAINT %q
			FOREIGN KEY (%q)
			REFERENCES %q("id")
			ON DELETE CASCADE
		`, c.table, c.name, c.column, c.refTable)).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}

	// Storage-level single-flight guard: at most one queued or running
	// reindex job per park, enforced even across racing processes.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS "uq_kb_index_job_active_per_park"
		ON "kb_index_job" ("park_id")
		WHERE status IN ('queued', 'running')
	`).Error; err != nil {
		return fmt.Errorf("failed to create uq_kb_index_job_active_per_park: %w", err)
	}

	// One open lead per (park, session).
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS "uq_lead_open_per_session"
		ON "lead" ("park_id", "session_id")
		WHERE status = 'open'
	`).Error; err != nil {
		return fmt.Errorf("failed to create uq_lead_open_per_session: %w", err)
	}

	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
