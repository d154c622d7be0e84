package models

import (
	"time"
)

// PhotoAsset is a guest's uploaded image plus its derived artifacts. Storage
// keys point into the object store; the row itself is the index entry.
type PhotoAsset struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID    uint      `json:"event_id" gorm:"not null;index"`
	GuestEmail string    `json:"guest_email" gorm:"not null;index"`
	FileName   string    `json:"file_name" gorm:"not null"`
	MimeType   string    `json:"mime_type" gorm:"not null"`
	FileSize   int64     `json:"file_size" gorm:"not null"`
	OriginalKey string   `json:"original_key" gorm:"not null"`
	CutoutKey  string    `json:"cutout_key"`  // empty if removal failed or was skipped
	PreviewKey string    `json:"preview_key"` // downsized cutout for fast display
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasCutout reports whether background removal produced a usable cutout.
// When false, compositing must fall back to the original buffer.
func (p *PhotoAsset) HasCutout() bool {
	return p.CutoutKey != ""
}

// UploadResult is the per-file outcome of a batch upload. Order matches the
// input file order; one failed file never sinks the batch.
type UploadResult struct {
	FileName string `json:"file_name"`
	PhotoID  string `json:"photo_id,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type BatchUploadResponse struct {
	Results   []UploadResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Usage     UsageReport    `json:"usage"`
}

type PhotoResponse struct {
	ID         string    `json:"id"`
	EventID    uint      `json:"event_id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	HasCutout  bool      `json:"has_cutout"`
	PreviewKey string    `json:"preview_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *PhotoAsset) ToResponse() PhotoResponse {
	return PhotoResponse{
		ID:         p.ID,
		EventID:    p.EventID,
		FileName:   p.FileName,
		MimeType:   p.MimeType,
		FileSize:   p.FileSize,
		HasCutout:  p.HasCutout(),
		PreviewKey: p.PreviewKey,
		CreatedAt:  p.CreatedAt,
	}
}
