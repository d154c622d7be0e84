package repository

import (
	"errors"

	"github.com/boothpix/photobooth-backend/internal/models"
	"gorm.io/gorm"
)

type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) Create(production *models.ProductionSet) error {
	return r.db.Create(production).Error
}

func (r *ProductionRepository) GetByToken(token string) (*models.ProductionSet, error) {
	var production models.ProductionSet
	err := r.db.Preload("Attachments").Where("download_token = ?", token).First(&production).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &production, nil
}

func (r *ProductionRepository) GetByID(id uint) (*models.ProductionSet, error) {
	var production models.ProductionSet
	err := r.db.Preload("Attachments").First(&production, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &production, nil
}

// IncrementDownloadCount is best-effort bookkeeping; callers ignore the error
// so it never blocks a download response.
func (r *ProductionRepository) IncrementDownloadCount(id uint) error {
	return r.db.Model(&models.ProductionSet{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

// Delete removes a production set and its attachment rows (admin purge).
func (r *ProductionRepository) Delete(id uint) error {
	if err := r.db.Where("production_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.ProductionSet{}, id).Error
}
