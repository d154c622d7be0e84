package repository

import (
	"errors"

	"github.com/boothpix/photobooth-backend/internal/models"
	"gorm.io/gorm"
)

type SelectionRepository struct {
	db *gorm.DB
}

func NewSelectionRepository(db *gorm.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

func (r *SelectionRepository) Create(token *models.SelectionToken) error {
	return r.db.Create(token).Error
}

// GetByToken returns the raw row; redeemability (expiry, used flag) is the
// service's call so unknown/expired/used all surface identically upstream.
func (r *SelectionRepository) GetByToken(token string) (*models.SelectionToken, error) {
	var st models.SelectionToken
	err := r.db.Where("token = ?", token).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// MarkUsed consumes a token. Idempotent: marking an already-used token
// succeeds without effect.
func (r *SelectionRepository) MarkUsed(token string) error {
	return r.db.Model(&models.SelectionToken{}).
		Where("token = ?", token).
		UpdateColumn("used", true).Error
}
