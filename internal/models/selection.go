package models

import "time"

// SelectionToken is a single-use credential binding a guest email to an event
// scope, permitting browsing of uploaded photos and submission of favorites.
// Unknown, expired and already-used tokens are indistinguishable to callers.
type SelectionToken struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	EventID    uint      `json:"event_id" gorm:"not null;index"`
	GuestEmail string    `json:"guest_email" gorm:"not null"`
	Token      string    `json:"token" gorm:"unique;not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null"`
	Used       bool      `json:"used" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

// Redeemable reports whether the token can still be resolved.
func (t *SelectionToken) Redeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// CheckIn is a guest's pending registration at the booth, cleared once their
// upload batch lands. Clearing a missing check-in is not an error.
type CheckIn struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	EventID    uint      `json:"event_id" gorm:"not null;index"`
	GuestEmail string    `json:"guest_email" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`
}

// Transform positions a cutout on the composition canvas.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX int     `json:"offset_x"`
	OffsetY int     `json:"offset_y"`
}

// Selection is one favorite picked by a guest: which photo, optionally which
// backdrop to composite against, how to place it, and an optional filter.
type Selection struct {
	PhotoID      string     `json:"photo_id" validate:"required"`
	BackgroundID *uint      `json:"background_id"`
	Transform    *Transform `json:"transform"`
	Filter       string     `json:"filter"`
}

type SubmitSelectionsRequest struct {
	Selections []Selection `json:"selections" validate:"required,min=1,dive"`
}

type CreateSelectionTokenRequest struct {
	GuestEmail string `json:"guest_email" validate:"required,email"`
}

type SelectionContext struct {
	Email             string               `json:"email"`
	Photos            []PhotoResponse      `json:"photos"`
	Backgrounds       []Background         `json:"backgrounds"`
	AllowedSelections int                  `json:"allowed_selections"`
	Usage             UsageReport          `json:"usage"`
	Event             SelectionEventInfo   `json:"event"`
}

type SelectionEventInfo struct {
	Name      string `json:"name"`
	Plan      string `json:"plan"`
	Watermark bool   `json:"watermark"`
}
