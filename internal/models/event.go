package models

import (
	"time"
)

type EventStatus string

const (
	EventStatusDraft EventStatus = "draft"
	EventStatusLive  EventStatus = "live"
	EventStatusEnded EventStatus = "ended"
)

type Event struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	UserID       uint        `json:"user_id" gorm:"not null"`
	Title        string      `json:"title" gorm:"not null"`
	BusinessName string      `json:"business_name"`
	URL          string      `json:"url" gorm:"unique;not null"`
	Plan         string      `json:"plan" gorm:"not null;default:'free'"`
	Status       EventStatus `json:"status" gorm:"not null;default:'draft'"`
	PaymentDue   bool        `json:"payment_due" gorm:"default:false"`

	// Usage counters. Caps are snapshotted from the plan policy at creation so
	// a later change to the plan table never shrinks a running event.
	PhotoUsed int  `json:"photo_used" gorm:"not null;default:0"`
	PhotoCap  *int `json:"photo_cap"` // NULL = unlimited
	AIUsed    int  `json:"ai_used" gorm:"not null;default:0"`
	AICredits int  `json:"ai_credits" gorm:"not null;default:0"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Policy returns the plan policy the event is billed under.
func (e *Event) Policy() PlanPolicy {
	return PolicyFor(e.Plan)
}

// RemainingPhotos returns headroom under the photo cap, or -1 when unlimited.
func (e *Event) RemainingPhotos() int {
	if e.PhotoCap == nil {
		return -1
	}
	remaining := *e.PhotoCap - e.PhotoUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (e *Event) RemainingAICredits() int {
	remaining := e.AICredits - e.AIUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

type EventRequest struct {
	Title        string `json:"title" validate:"required"`
	BusinessName string `json:"business_name"`
	Plan         string `json:"plan"`
}

type UsageReport struct {
	PhotoUsed   int  `json:"photo_used"`
	PhotoCap    *int `json:"photo_cap"`
	RemainingAI int  `json:"remaining_ai"`
	Watermark   bool `json:"watermark"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:           e.ID,
		Title:        e.Title,
		BusinessName: e.BusinessName,
		URL:          e.URL,
		Plan:         e.Plan,
		Status:       e.Status,
		Usage: UsageReport{
			PhotoUsed:   e.PhotoUsed,
			PhotoCap:    e.PhotoCap,
			RemainingAI: e.RemainingAICredits(),
			Watermark:   e.Policy().Watermark,
		},
		ExpiresAt: e.ExpiresAt,
		CreatedAt: e.CreatedAt,
	}
}

type EventResponse struct {
	ID           uint        `json:"id"`
	Title        string      `json:"title"`
	BusinessName string      `json:"business_name"`
	URL          string      `json:"url"`
	Plan         string      `json:"plan"`
	Status       EventStatus `json:"status"`
	Usage        UsageReport `json:"usage"`
	ExpiresAt    time.Time   `json:"expires_at"`
	CreatedAt    time.Time   `json:"created_at"`
}
