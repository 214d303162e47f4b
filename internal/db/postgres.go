package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/config"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(cfg *config.Config, log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	//1) Construct DSN From Config
	serviceLog.Info("Attempting to construct DSN for Postgres now...")
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		int(cfg.DBConnectTimeout/time.Second),
	)
	serviceLog.Debug("Postgres DSN built :)", "host", cfg.DBHost, "port", cfg.DBPort, "dbname", cfg.DBName)

	//2) Attempt DB Connection
	serviceLog.Info("Attempting to connect to Postgres DB now...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres DB", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}

	//3) Pool Settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxIdleTime(cfg.DBIdleTimeout)
	serviceLog.Info("Successfully Connected to Postgres DB :)", "maxOpenConns", cfg.DBMaxOpenConns)

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) AutoMigrateAll() error {
	return Migrate(s.db, s.log)
}

// Migrate creates every table and the indexes gorm tags cannot express.
// It runs against postgres in production and sqlite in tests.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("Starting AutoMigrateAll for all GORM models now...")
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		log.Error("AutoMigrateAll failed :(", "error", err)
		return err
	}
	log.Info("AutoMigrateAll completed successfully :)")
	return EnsureIndexes(db, log)
}

type foreignKey struct {
	table    string
	column   string
	refTable string
	onDelete string
}

var foreignKeys = []foreignKey{
	{"accounts", "user_id", "users", "CASCADE"},
	{"sessions", "user_id", "users", "CASCADE"},
	{"profiles", "user_id", "users", "CASCADE"},
	{"workspaces", "user_id", "users", "CASCADE"},
	{"assistants", "user_id", "users", "CASCADE"},
	{"tools", "user_id", "users", "CASCADE"},
	{"files", "user_id", "users", "CASCADE"},
	{"file_items", "file_id", "files", "CASCADE"},
	{"collections", "user_id", "users", "CASCADE"},
	{"chats", "workspace_id", "workspaces", "CASCADE"},
	{"chats", "assistant_id", "assistants", "CASCADE"},
	{"chats", "collection_id", "collections", "CASCADE"},
	{"assistant_files", "assistant_id", "assistants", "CASCADE"},
	{"assistant_files", "file_id", "files", "CASCADE"},
	{"assistant_collections", "assistant_id", "assistants", "CASCADE"},
	{"assistant_collections", "collection_id", "collections", "CASCADE"},
	{"assistant_tools", "assistant_id", "assistants", "CASCADE"},
	{"assistant_tools", "tool_id", "tools", "CASCADE"},
	{"collection_files", "collection_id", "collections", "CASCADE"},
	{"collection_files", "file_id", "files", "CASCADE"},
	{"collection_workspaces", "collection_id", "collections", "CASCADE"},
	{"collection_workspaces", "workspace_id", "workspaces", "CASCADE"},
	{"chat_files", "chat_id", "chats", "CASCADE"},
	{"chat_files", "file_id", "files", "CASCADE"},
	{"file_workspaces", "file_id", "files", "CASCADE"},
	{"file_workspaces", "workspace_id", "workspaces", "CASCADE"},
}

func EnsureIndexes(db *gorm.DB, log *logger.Logger) error {
	log.Info("Ensuring home workspace index now...")
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_workspaces_one_home ON workspaces (user_id) WHERE is_home`).Error; err != nil {
		return fmt.Errorf("failed to create idx_workspaces_one_home: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		log.Debug("Skipping foreign key constraints for dialect", "dialect", db.Dialector.Name())
		return nil
	}

	log.Info("Configuring Foreign Key Relationships now...")
	for _, fk := range foreignKeys {
		name := fmt.Sprintf("fk_%s_%s", fk.table, fk.column)
		var count int64
		if err := db.Raw(`SELECT count(*) FROM pg_constraint WHERE conname = ?`, name).Scan(&count).Error; err != nil {
			return fmt.Errorf("failed to look up %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		stmt := fmt.Sprintf(
			`ALTER TABLE %q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q ("id") ON DELETE %s`,
			fk.table, name, fk.column, fk.refTable, fk.onDelete,
		)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}
	log.Info("Foreign Key Relationships configured :)")
	return nil
}
