package service

import (
	"context"
	"time"

	"github.com/boothpix/photobooth-backend/pkg/bgremover"
	"github.com/boothpix/photobooth-backend/pkg/email"
)

// BackgroundRemover is what the pipeline needs from the remote cutout
// service.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, filename, contentType string, data []byte) (*bgremover.Cutout, error)
	GenerateBackground(ctx context.Context, prompt string) ([]byte, string, error)
	Configured() bool
}

// Mailer is the outbound notification surface.
type Mailer interface {
	SendDeliveryEmail(to, eventName, businessName string, attachments []email.Attachment) error
	SendDownloadLinkEmail(to, eventName, businessName, downloadURL string, expiresAt time.Time) error
	SendSelectionInviteEmail(to, eventName, selectionURL string, qrPNG []byte) error
	SendUploadReceivedEmail(to, eventName string, count int) error
}
