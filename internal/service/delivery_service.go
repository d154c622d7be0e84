package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/pkg/composer"
	"github.com/boothpix/photobooth-backend/pkg/email"
	"github.com/boothpix/photobooth-backend/pkg/logger"
	"github.com/boothpix/photobooth-backend/pkg/storage"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

// Attachments up to this many ride inline in the delivery email; larger
// bundles get a tokenized download link instead.
const inlineAttachmentLimit = 1

// DeliveryService runs the export half of the pipeline: composition,
// branding, packaging, token issuance, email dispatch and cleanup.
type DeliveryService struct {
	photoRepo      *repository.PhotoRepository
	backgroundRepo *repository.BackgroundRepository
	productionRepo *repository.ProductionRepository
	eventRepo      *repository.EventRepository
	objects        storage.ObjectStorage
	mailer         Mailer
	log            *logger.Logger

	publicBaseURL string
	downloadTTL   time.Duration
	attachmentTTL time.Duration
}

func NewDeliveryService(
	photoRepo *repository.PhotoRepository,
	backgroundRepo *repository.BackgroundRepository,
	productionRepo *repository.ProductionRepository,
	eventRepo *repository.EventRepository,
	objects storage.ObjectStorage,
	mailer Mailer,
	log *logger.Logger,
	publicBaseURL string,
	downloadTTL, attachmentTTL time.Duration,
) *DeliveryService {
	if downloadTTL <= 0 {
		downloadTTL = 7 * 24 * time.Hour
	}
	if attachmentTTL <= 0 {
		attachmentTTL = 72 * time.Hour
	}

	return &DeliveryService{
		photoRepo:      photoRepo,
		backgroundRepo: backgroundRepo,
		productionRepo: productionRepo,
		eventRepo:      eventRepo,
		objects:        objects,
		mailer:         mailer,
		log:            log,
		publicBaseURL:  publicBaseURL,
		downloadTTL:    downloadTTL,
		attachmentTTL:  attachmentTTL,
	}
}

// Deliver composes and ships the guest's selected photos. Watermarking is
// applied only on watermark-enabled (free tier) plans; the component itself
// is unconditional, the gate lives here.
func (s *DeliveryService) Deliver(ctx context.Context, event *models.Event, guestEmail string, selections []models.Selection) (*models.ProductionSet, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: no selections submitted", models.ErrValidation)
	}

	guestEmail = normalizeEmail(guestEmail)
	policy := event.Policy()
	token := utils.GenerateSecureToken(24)

	production := &models.ProductionSet{
		EventID:       event.ID,
		Email:         guestEmail,
		DownloadToken: token,
	}

	var inline []email.Attachment
	var deliveredPhotoIDs []string

	for i, sel := range selections {
		buf, photo, err := s.renderSelection(ctx, event, guestEmail, policy, sel)
		if err != nil {
			return nil, err
		}

		filename := fmt.Sprintf("photo-%02d.png", i+1)
		key := storage.ProductionKey(token, filename)
		if err := s.objects.Put(ctx, key, buf, "image/png"); err != nil {
			return nil, fmt.Errorf("failed to persist production: %w", err)
		}

		production.Attachments = append(production.Attachments, models.Attachment{
			FileName:    filename,
			StorageKey:  key,
			ContentType: "image/png",
			Size:        int64(len(buf)),
		})
		inline = append(inline, email.Attachment{Filename: filename, Content: buf, ContentType: "image/png"})
		deliveredPhotoIDs = append(deliveredPhotoIDs, photo.ID)
	}

	direct := len(production.Attachments) <= inlineAttachmentLimit
	if direct {
		production.TokenExpiresAt = time.Now().Add(s.attachmentTTL)
	} else {
		production.TokenExpiresAt = time.Now().Add(s.downloadTTL)
	}

	if err := s.productionRepo.Create(production); err != nil {
		return nil, fmt.Errorf("failed to create production record: %w", err)
	}

	// Email dispatch never rolls back the persisted production; the resend
	// endpoint remediates failures and the download link stays valid.
	if err := s.sendProductionEmail(event, production, inline, direct); err != nil {
		s.log.Error("delivery email for production %d to %s failed: %v", production.ID, guestEmail, err)
	}

	// The direct-attachment channel cleans up delivered sources eagerly; the
	// link channel relies on token expiry instead.
	if direct {
		for _, photoID := range deliveredPhotoIDs {
			if err := s.deleteSourceAsset(ctx, photoID); err != nil {
				s.log.Warn("post-delivery cleanup of photo %s failed: %v", photoID, err)
			}
		}
	}

	return production, nil
}

// renderSelection resolves the source buffer (cutout when available, original
// otherwise), composites, filters and brands one selection. Photos outside the
// event or belonging to another guest are invisible to the caller.
func (s *DeliveryService) renderSelection(ctx context.Context, event *models.Event, guestEmail string, policy models.PlanPolicy, sel models.Selection) ([]byte, *models.PhotoAsset, error) {
	photo, err := s.photoRepo.GetByID(sel.PhotoID)
	if err != nil {
		return nil, nil, err
	}
	if photo.EventID != event.ID || photo.GuestEmail != guestEmail {
		return nil, nil, fmt.Errorf("%w: photo %s", models.ErrNotFound, sel.PhotoID)
	}

	buf, hasCutout, err := s.sourceBuffer(ctx, policy, photo)
	if err != nil {
		return nil, nil, err
	}

	// Compositing needs an alpha cutout; without one we skip layering and
	// deliver the flat photo, still filtered/branded below.
	if sel.BackgroundID != nil && hasCutout {
		background, err := s.backgroundRepo.GetByID(*sel.BackgroundID)
		if err != nil {
			return nil, nil, err
		}
		if background.EventID != nil && *background.EventID != event.ID {
			return nil, nil, fmt.Errorf("%w: background %d", models.ErrNotFound, *sel.BackgroundID)
		}

		bgBuf, _, err := s.objects.Get(ctx, background.StorageKey)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: background bytes for %d", models.ErrNotFound, background.ID)
		}

		transform := composer.DefaultTransform()
		if sel.Transform != nil {
			transform = composer.Transform{
				Scale:   sel.Transform.Scale,
				OffsetX: sel.Transform.OffsetX,
				OffsetY: sel.Transform.OffsetY,
			}
		}

		buf, err = composer.Compose(buf, bgBuf, transform, composer.DefaultCanvasWidth, composer.DefaultCanvasHeight)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
	}

	if sel.Filter != "" {
		buf, err = composer.ApplyFilter(buf, composer.FilterID(sel.Filter))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
	}

	if policy.Watermark {
		buf, err = composer.ApplyWatermark(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("watermarking failed: %w", err)
		}
	}

	return buf, photo, nil
}

// sourceBuffer prefers the cutout when the plan ran background removal and
// the cutout exists. Index rows whose cutout bytes went missing fall back to
// the original instead of failing the delivery.
func (s *DeliveryService) sourceBuffer(ctx context.Context, policy models.PlanPolicy, photo *models.PhotoAsset) ([]byte, bool, error) {
	if policy.BackgroundRemoval && photo.HasCutout() {
		buf, _, err := s.objects.Get(ctx, photo.CutoutKey)
		if err == nil {
			return buf, true, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return nil, false, err
		}
		s.log.Warn("cutout bytes missing for photo %s, falling back to original", photo.ID)
	}

	buf, _, err := s.objects.Get(ctx, photo.OriginalKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, false, fmt.Errorf("%w: photo bytes for %s", models.ErrNotFound, photo.ID)
		}
		return nil, false, err
	}
	return buf, false, nil
}

func (s *DeliveryService) sendProductionEmail(event *models.Event, production *models.ProductionSet, inline []email.Attachment, direct bool) error {
	if direct {
		return s.mailer.SendDeliveryEmail(production.Email, event.Title, event.BusinessName, inline)
	}

	downloadURL := fmt.Sprintf("%s/productions/%s/download", s.publicBaseURL, production.DownloadToken)
	return s.mailer.SendDownloadLinkEmail(production.Email, event.Title, event.BusinessName, downloadURL, production.TokenExpiresAt)
}

// ResolveDownload validates a download token. Expired tokens are reported
// distinctly (410) from never-existed ones (404).
func (s *DeliveryService) ResolveDownload(token string) (*models.ProductionSet, error) {
	production, err := s.productionRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if production.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: download link expired", models.ErrExpiredOrInvalid)
	}
	return production, nil
}

// FetchAttachment loads one attachment's bytes for streaming.
func (s *DeliveryService) FetchAttachment(ctx context.Context, att models.Attachment) ([]byte, error) {
	buf, _, err := s.objects.Get(ctx, att.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: attachment %s", models.ErrNotFound, att.FileName)
		}
		return nil, err
	}
	return buf, nil
}

// CountDownload bumps the download counter; best-effort by contract.
func (s *DeliveryService) CountDownload(production *models.ProductionSet) {
	if err := s.productionRepo.IncrementDownloadCount(production.ID); err != nil {
		s.log.Warn("download count increment failed for production %d: %v", production.ID, err)
	}
}

// ResendEmail re-dispatches the production notification after a failed send.
// Only the owning event's operator may trigger it.
func (s *DeliveryService) ResendEmail(ctx context.Context, productionID, userID uint) error {
	production, err := s.productionRepo.GetByID(productionID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(production.EventID)
	if err != nil {
		return err
	}
	if event.UserID != userID {
		return fmt.Errorf("%w: production belongs to another event", models.ErrForbidden)
	}

	direct := len(production.Attachments) <= inlineAttachmentLimit
	var inline []email.Attachment
	if direct {
		for _, att := range production.Attachments {
			buf, err := s.FetchAttachment(ctx, att)
			if err != nil {
				return err
			}
			inline = append(inline, email.Attachment{Filename: att.FileName, Content: buf, ContentType: att.ContentType})
		}
	}

	return s.sendProductionEmail(event, production, inline, direct)
}

// PurgeProduction is the explicit admin cleanup: attachment bytes first, then
// index rows.
func (s *DeliveryService) PurgeProduction(ctx context.Context, productionID, userID uint) error {
	production, err := s.productionRepo.GetByID(productionID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(production.EventID)
	if err != nil {
		return err
	}
	if event.UserID != userID {
		return fmt.Errorf("%w: production belongs to another event", models.ErrForbidden)
	}

	for _, att := range production.Attachments {
		if err := s.objects.Delete(ctx, att.StorageKey); err != nil {
			s.log.Warn("failed to delete attachment %s: %v", att.StorageKey, err)
		}
	}

	return s.productionRepo.Delete(production.ID)
}

// deleteSourceAsset removes a delivered photo's bytes and index entry.
func (s *DeliveryService) deleteSourceAsset(ctx context.Context, photoID string) error {
	photo, err := s.photoRepo.GetByID(photoID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}

	for _, key := range []string{photo.OriginalKey, photo.CutoutKey, photo.PreviewKey} {
		if key == "" {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.log.Warn("failed to delete object %s: %v", key, err)
		}
	}

	return s.photoRepo.Delete(photoID)
}
