package repository

import (
	"errors"

	"github.com/boothpix/photobooth-backend/internal/models"
	"gorm.io/gorm"
)

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{
		db: db,
	}
}

func (r *PhotoRepository) Create(photo *models.PhotoAsset) error {
	return r.db.Create(photo).Error
}

func (r *PhotoRepository) GetByID(id string) (*models.PhotoAsset, error) {
	var photo models.PhotoAsset
	err := r.db.First(&photo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &photo, nil
}

func (r *PhotoRepository) GetByEventID(eventID uint) ([]models.PhotoAsset, error) {
	var photos []models.PhotoAsset
	err := r.db.Where("event_id = ?", eventID).Order("created_at DESC").Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) GetByEventAndGuest(eventID uint, guestEmail string) ([]models.PhotoAsset, error) {
	var photos []models.PhotoAsset
	err := r.db.Where("event_id = ? AND guest_email = ?", eventID, guestEmail).
		Order("created_at ASC").Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) Update(photo *models.PhotoAsset) error {
	return r.db.Save(photo).Error
}

func (r *PhotoRepository) Delete(id string) error {
	return r.db.Delete(&models.PhotoAsset{}, "id = ?", id).Error
}

func (r *PhotoRepository) CountByEventID(eventID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PhotoAsset{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}
