package postgres

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LavaJover/shvark-kickstarter-service/internal/config"
	eventlog "github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/models"
)

// MustInitDB opens the ledger database and brings the schema up to date.
// SQL migrations win when a migrations path is configured; otherwise the
// schema is derived from the models.
func MustInitDB(cfg *config.KickstarterConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.KickstarterDB.Dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.KickstarterDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.KickstarterDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v\n", err)
		}
		return db
	}

	if err := db.AutoMigrate(
		&models.CampaignModel{},
		&models.GoalModel{},
		&models.SupporterModel{},
		&models.SupporterPositionModel{},
		&models.SettlementModel{},
		&eventlog.LedgerEventModel{},
	); err != nil {
		log.Fatalf("failed to migrate db: %v\n", err)
	}
	return db
}
