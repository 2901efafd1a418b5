package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"fabric-inspection-backend/config"
	"fabric-inspection-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations and seeds the defect-code catalog.
// Split out from Init so tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.FabricRoll{},
		&model.FabricDefect{},
		&model.DefectCode{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return seedDefectCodes(db)
}

// defaultDefectCodes is the fallback catalog used when the upstream catalog
// has not been synced into the table yet.
var defaultDefectCodes = []model.DefectCode{
	{Code: "HOLE", Description: "Hole or tear in the fabric"},
	{Code: "STAIN", Description: "Oil, dye or dirt stain"},
	{Code: "SLUB", Description: "Thick place caused by a yarn slub"},
	{Code: "MISSEND", Description: "Missing end / broken warp thread"},
	{Code: "MISSPICK", Description: "Missing pick / broken weft thread"},
	{Code: "SELVEDGE", Description: "Damaged or curled selvedge"},
	{Code: "SHADE", Description: "Shade variation across the width"},
	{Code: "CREASE", Description: "Permanent crease mark"},
}

func seedDefectCodes(db *gorm.DB) error {
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaultDefectCodes).Error; err != nil {
		return fmt.Errorf("failed to seed defect codes: %w", err)
	}
	return nil
}
