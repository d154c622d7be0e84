package database

import (
	"fmt"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/pkg/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Event{},
		&models.PhotoAsset{},
		&models.Background{},
		&models.ProductionSet{},
		&models.Attachment{},
		&models.SelectionToken{},
		&models.CheckIn{},
	)
	if err != nil {
		return err
	}

	return seedDefaultBackgrounds(db)
}

// seedDefaultBackgrounds installs the shared backdrop set once. Default
// backgrounds are global (no event) and are never deleted by tenant actions.
func seedDefaultBackgrounds(db *gorm.DB) error {
	defaults := []models.Background{
		{
			Name:        "Studio White",
			Description: "Clean seamless white studio backdrop",
			Category:    models.CategoryBackground,
			StorageKey:  storage.DefaultBackgroundKey("studio-white.jpg"),
			Origin:      models.OriginDefault,
			Enabled:     true,
		},
		{
			Name:        "City Lights",
			Description: "Night skyline bokeh",
			Category:    models.CategoryBackground,
			StorageKey:  storage.DefaultBackgroundKey("city-lights.jpg"),
			Origin:      models.OriginDefault,
			Enabled:     true,
		},
		{
			Name:        "Golden Hour",
			Description: "Warm sunset gradient",
			Category:    models.CategoryBackground,
			StorageKey:  storage.DefaultBackgroundKey("golden-hour.jpg"),
			Origin:      models.OriginDefault,
			Enabled:     true,
		},
		{
			Name:        "Confetti Frame",
			Description: "Festive confetti border overlay",
			Category:    models.CategoryFrame,
			StorageKey:  storage.DefaultBackgroundKey("confetti-frame.png"),
			Origin:      models.OriginDefault,
			Enabled:     true,
		},
	}

	for _, bg := range defaults {
		var count int64
		db.Model(&models.Background{}).Where("name = ? AND origin = ?", bg.Name, models.OriginDefault).Count(&count)
		if count == 0 {
			if err := db.Create(&bg).Error; err != nil {
				return fmt.Errorf("failed to seed background %q: %w", bg.Name, err)
			}
		}
	}

	return nil
}
