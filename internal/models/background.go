package models

import "time"

type BackgroundCategory string

const (
	CategoryBackground BackgroundCategory = "background"
	CategoryFrame      BackgroundCategory = "frame"
)

type BackgroundOrigin string

const (
	OriginDefault BackgroundOrigin = "default" // shared across all events, never tenant-deletable
	OriginEvent   BackgroundOrigin = "event"
	OriginAI      BackgroundOrigin = "ai"
)

// Background is a reusable backdrop or frame overlay.
type Background struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	EventID     *uint              `json:"event_id" gorm:"index"` // NULL for the default/global set
	Name        string             `json:"name" gorm:"not null"`
	Description string             `json:"description"`
	Category    BackgroundCategory `json:"category" gorm:"not null;default:'background'"`
	StorageKey  string             `json:"storage_key" gorm:"not null"`
	Origin      BackgroundOrigin   `json:"origin" gorm:"not null;default:'event'"`
	Enabled     bool               `json:"enabled" gorm:"default:true"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type BackgroundRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	Category    BackgroundCategory `json:"category"`
	ContentType string             `json:"-" validate:"required,supported_image"`
}

type GenerateBackgroundRequest struct {
	Prompt string `json:"prompt" validate:"required,min=3"`
}
