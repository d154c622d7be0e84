package models

import "time"

// ProductionSet is a delivery bundle: the composed images produced for one
// guest, reachable through a single-use download token until expiry.
// After creation only DownloadCount changes.
type ProductionSet struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	EventID        uint         `json:"event_id" gorm:"not null;index"`
	Email          string       `json:"email" gorm:"not null"`
	DownloadToken  string       `json:"download_token" gorm:"unique;not null"`
	TokenExpiresAt time.Time    `json:"token_expires_at" gorm:"not null"`
	DownloadCount  int          `json:"download_count" gorm:"not null;default:0"`
	Attachments    []Attachment `json:"attachments" gorm:"foreignKey:ProductionID"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Expired reports whether the download token is past its expiry.
func (p *ProductionSet) Expired(now time.Time) bool {
	return now.After(p.TokenExpiresAt)
}

type Attachment struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	ProductionID uint   `json:"production_id" gorm:"not null;index"`
	FileName     string `json:"file_name" gorm:"not null"`
	StorageKey   string `json:"storage_key" gorm:"not null"`
	ContentType  string `json:"content_type" gorm:"not null"`
	Size         int64  `json:"size" gorm:"not null"`
}
