package repository

import (
	"errors"

	"github.com/boothpix/photobooth-backend/internal/models"
	"gorm.io/gorm"
)

type BackgroundRepository struct {
	db *gorm.DB
}

func NewBackgroundRepository(db *gorm.DB) *BackgroundRepository {
	return &BackgroundRepository{db: db}
}

func (r *BackgroundRepository) Create(bg *models.Background) error {
	return r.db.Create(bg).Error
}

func (r *BackgroundRepository) GetByID(id uint) (*models.Background, error) {
	var bg models.Background
	err := r.db.First(&bg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &bg, nil
}

// ListForEvent returns the enabled backdrops visible to an event: the global
// default set plus the event's own (uploaded or AI-generated).
func (r *BackgroundRepository) ListForEvent(eventID uint) ([]models.Background, error) {
	var backgrounds []models.Background
	err := r.db.Where("enabled = ? AND (event_id IS NULL OR event_id = ?)", true, eventID).
		Order("origin ASC, created_at ASC").Find(&backgrounds).Error
	return backgrounds, err
}

// DeleteEventScoped removes an event-owned background. Default/global rows
// are not deletable through tenant actions.
func (r *BackgroundRepository) DeleteEventScoped(id, eventID uint) error {
	result := r.db.Where("id = ? AND event_id = ? AND origin <> ?", id, eventID, models.OriginDefault).
		Delete(&models.Background{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
