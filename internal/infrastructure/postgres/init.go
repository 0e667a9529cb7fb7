package postgres

import (
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/config"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the database and brings the schema up to date, either with gorm
// AutoMigrate or with the SQL migrations on disk.
func InitDB(cfg *config.LockdownConfig, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Env == "local" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.LockdownDB.Dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	if cfg.LockdownDB.AutoMigrate {
		if err := db.AutoMigrate(&models.CCPRecordModel{}, &models.DayPhaseModel{}, &models.AuditEntryModel{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("lockdown schema auto-migrated")
		return db, nil
	}

	if _, err := migrate.RunMigrations(db, cfg.LockdownDB.MigrationsPath, log); err != nil {
		return nil, err
	}
	return db, nil
}
