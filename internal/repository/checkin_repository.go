package repository

import (
	"github.com/boothpix/photobooth-backend/internal/models"
	"gorm.io/gorm"
)

type CheckInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

func (r *CheckInRepository) Create(checkIn *models.CheckIn) error {
	return r.db.Create(checkIn).Error
}

// Clear removes a guest's pending check-in. Clearing one that does not exist
// is not an error.
func (r *CheckInRepository) Clear(eventID uint, guestEmail string) error {
	return r.db.Where("event_id = ? AND guest_email = ?", eventID, guestEmail).
		Delete(&models.CheckIn{}).Error
}

func (r *CheckInRepository) ListByEvent(eventID uint) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := r.db.Where("event_id = ?", eventID).Order("created_at ASC").Find(&checkIns).Error
	return checkIns, err
}
