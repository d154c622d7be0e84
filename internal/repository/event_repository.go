package repository

import (
	"errors"

	"github.com/boothpix/photobooth-backend/internal/models"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(event *models.Event) (*models.Event, error) {
	result := r.db.Create(event)
	if result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

func (r *EventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) GetByURL(url string) (*models.Event, error) {
	var event models.Event
	err := r.db.Where("url = ?", url).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) GetUserEvents(userID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("user_id = ?", userID).Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(event *models.Event) error {
	return r.db.Save(event).Error
}

func (r *EventRepository) URLExists(url string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Event{}).Where("url = ?", url).Count(&count).Error
	return count > 0, err
}

// IncrementPhotoUsage bumps the photo counter by n in a single guarded
// UPDATE. The cap check and the increment are one statement, so two
// concurrent near-cap batches can never jointly overshoot the cap; the loser
// gets models.ErrPaymentRequired.
func (r *EventRepository) IncrementPhotoUsage(eventID uint, n int) error {
	if n <= 0 {
		return nil
	}

	result := r.db.Model(&models.Event{}).
		Where("id = ? AND (photo_cap IS NULL OR photo_used + ? <= photo_cap)", eventID, n).
		UpdateColumn("photo_used", gorm.Expr("photo_used + ?", n))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrPaymentRequired
	}
	return nil
}

// RefundPhotoUsage returns reserved headroom after a failed batch. Clamped at
// zero; best-effort callers ignore the error.
func (r *EventRepository) RefundPhotoUsage(eventID uint, n int) error {
	if n <= 0 {
		return nil
	}
	return r.db.Model(&models.Event{}).
		Where("id = ? AND photo_used >= ?", eventID, n).
		UpdateColumn("photo_used", gorm.Expr("photo_used - ?", n)).Error
}

// RefundAIUsage returns a reserved AI credit after a failed generation.
func (r *EventRepository) RefundAIUsage(eventID uint, n int) error {
	if n <= 0 {
		return nil
	}
	return r.db.Model(&models.Event{}).
		Where("id = ? AND ai_used >= ?", eventID, n).
		UpdateColumn("ai_used", gorm.Expr("ai_used - ?", n)).Error
}

// IncrementAIUsage consumes n AI credits with the same guarded-update
// discipline as IncrementPhotoUsage.
func (r *EventRepository) IncrementAIUsage(eventID uint, n int) error {
	if n <= 0 {
		return nil
	}

	result := r.db.Model(&models.Event{}).
		Where("id = ? AND ai_used + ? <= ai_credits", eventID, n).
		UpdateColumn("ai_used", gorm.Expr("ai_used + ?", n))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrPaymentRequired
	}
	return nil
}
