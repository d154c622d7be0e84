package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/pkg/composer"
	"github.com/boothpix/photobooth-backend/pkg/logger"
	"github.com/boothpix/photobooth-backend/pkg/storage"
)

const (
	maxUploadSize = 10 * 1024 * 1024

	previewMaxWidth  = 512
	previewMaxHeight = 512
)

// UploadFile is one raw file from a batch upload form.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// PhotoService runs the intake half of the pipeline: admission, per-file
// background removal, persistence and usage accounting.
type PhotoService struct {
	photoRepo    *repository.PhotoRepository
	eventRepo    *repository.EventRepository
	checkInRepo  *repository.CheckInRepository
	eventService *EventService
	objects      storage.ObjectStorage
	remover      BackgroundRemover
	mailer       Mailer
	log          *logger.Logger
}

func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	eventRepo *repository.EventRepository,
	checkInRepo *repository.CheckInRepository,
	eventService *EventService,
	objects storage.ObjectStorage,
	remover BackgroundRemover,
	mailer Mailer,
	log *logger.Logger,
) *PhotoService {
	return &PhotoService{
		photoRepo:    photoRepo,
		eventRepo:    eventRepo,
		checkInRepo:  checkInRepo,
		eventService: eventService,
		objects:      objects,
		remover:      remover,
		mailer:       mailer,
		log:          log,
	}
}

// UploadBatch ingests a guest's booth session. Per-file failures are recorded
// in input order and never abort the batch; only an all-failed batch errors.
// Usage counters move by the success count alone.
func (s *PhotoService) UploadBatch(ctx context.Context, eventID uint, guestEmail string, files []UploadFile, removeBackground bool) (*models.BatchUploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", models.ErrValidation)
	}

	guestEmail = normalizeEmail(guestEmail)
	if guestEmail == "" {
		return nil, fmt.Errorf("%w: guest email is required", models.ErrValidation)
	}

	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	if err := s.eventService.CheckAdmission(event, len(files), removeBackground, false); err != nil {
		return nil, err
	}

	results := make([]models.UploadResult, 0, len(files))
	var succeededIDs []string

	for _, file := range files {
		result := s.processFile(ctx, event, guestEmail, file, removeBackground)
		if result.Success {
			succeededIDs = append(succeededIDs, result.PhotoID)
		}
		results = append(results, result)
	}

	succeeded := len(succeededIDs)
	failed := len(results) - succeeded

	if succeeded == 0 {
		return &models.BatchUploadResponse{Results: results, Failed: failed},
			fmt.Errorf("%w: all %d uploads failed", models.ErrUpstream, failed)
	}

	// The admission check reserved headroom optimistically; the guarded
	// increment is the authoritative gate against concurrent batches.
	if err := s.eventRepo.IncrementPhotoUsage(event.ID, succeeded); err != nil {
		s.log.Warn("usage increment rejected for event %d, rolling back %d assets: %v", event.ID, succeeded, err)
		for _, id := range succeededIDs {
			s.purgeAsset(ctx, event.ID, id)
		}
		return nil, err
	}

	// Post-intake bookkeeping is best-effort and never fails the batch.
	if err := s.checkInRepo.Clear(event.ID, guestEmail); err != nil {
		s.log.Warn("failed to clear check-in for %s on event %d: %v", guestEmail, event.ID, err)
	}
	if err := s.mailer.SendUploadReceivedEmail(guestEmail, event.Title, succeeded); err != nil {
		s.log.Warn("upload notification to %s failed: %v", guestEmail, err)
	}

	fresh, err := s.eventRepo.GetByID(event.ID)
	if err != nil {
		fresh = event
	}

	return &models.BatchUploadResponse{
		Results:   results,
		Succeeded: succeeded,
		Failed:    failed,
		Usage:     s.eventService.Usage(fresh),
	}, nil
}

// processFile handles one upload: validation, optional background removal,
// original+cutout+preview persistence. The returned result carries the error
// text for failed files instead of propagating it.
func (s *PhotoService) processFile(ctx context.Context, event *models.Event, guestEmail string, file UploadFile, removeBackground bool) models.UploadResult {
	fail := func(err error) models.UploadResult {
		s.log.Warn("upload %q on event %d failed: %v", file.Name, event.ID, err)
		return models.UploadResult{FileName: file.Name, Error: err.Error()}
	}

	if !isValidImageType(file.ContentType) {
		return fail(fmt.Errorf("unsupported file type %q", file.ContentType))
	}
	if int64(len(file.Data)) > maxUploadSize {
		return fail(fmt.Errorf("file exceeds %d byte limit", maxUploadSize))
	}

	photo := &models.PhotoAsset{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		GuestEmail: guestEmail,
		FileName:   file.Name,
		MimeType:   file.ContentType,
		FileSize:   int64(len(file.Data)),
	}

	var cutout []byte
	var cutoutType string
	if removeBackground {
		result, err := s.remover.RemoveBackground(ctx, file.Name, file.ContentType, file.Data)
		if err != nil {
			return fail(err)
		}
		cutout = result.Data
		cutoutType = result.ContentType
	}

	photo.OriginalKey = storage.PhotoKey(event.ID, photo.ID, "original")
	if err := s.objects.Put(ctx, photo.OriginalKey, file.Data, file.ContentType); err != nil {
		return fail(err)
	}

	if cutout != nil {
		photo.CutoutKey = storage.PhotoKey(event.ID, photo.ID, "cutout")
		if err := s.objects.Put(ctx, photo.CutoutKey, cutout, cutoutType); err != nil {
			_ = s.objects.Delete(ctx, photo.OriginalKey)
			return fail(err)
		}

		if preview, err := composer.ResizeToFit(cutout, previewMaxWidth, previewMaxHeight); err == nil {
			photo.PreviewKey = storage.PhotoKey(event.ID, photo.ID, "preview")
			if err := s.objects.Put(ctx, photo.PreviewKey, preview, "image/png"); err != nil {
				// Previews are a convenience; the cutout remains canonical.
				s.log.Warn("preview store failed for photo %s: %v", photo.ID, err)
				photo.PreviewKey = ""
			}
		}
	}

	if err := s.photoRepo.Create(photo); err != nil {
		_ = s.objects.Delete(ctx, photo.OriginalKey)
		if photo.CutoutKey != "" {
			_ = s.objects.Delete(ctx, photo.CutoutKey)
		}
		if photo.PreviewKey != "" {
			_ = s.objects.Delete(ctx, photo.PreviewKey)
		}
		return fail(err)
	}

	return models.UploadResult{FileName: file.Name, PhotoID: photo.ID, Success: true}
}

func (s *PhotoService) GetEventPhotos(eventID uint) ([]models.PhotoAsset, error) {
	return s.photoRepo.GetByEventID(eventID)
}

func (s *PhotoService) GetGuestPhotos(eventID uint, guestEmail string) ([]models.PhotoAsset, error) {
	return s.photoRepo.GetByEventAndGuest(eventID, normalizeEmail(guestEmail))
}

// DeletePhoto removes an asset: bytes first, index entry second, so a crash
// between the two leaves a recoverable index row rather than orphaned bytes.
// Assets outside the given event are invisible to the caller.
func (s *PhotoService) DeletePhoto(ctx context.Context, eventID uint, photoID string) error {
	photo, err := s.photoRepo.GetByID(photoID)
	if err != nil {
		return err
	}
	if photo.EventID != eventID {
		return fmt.Errorf("%w: photo %s", models.ErrNotFound, photoID)
	}

	for _, key := range []string{photo.OriginalKey, photo.CutoutKey, photo.PreviewKey} {
		if key == "" {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.log.Warn("failed to delete object %s for photo %s: %v", key, photoID, err)
		}
	}

	return s.photoRepo.Delete(photoID)
}

// purgeAsset is the rollback twin of processFile; everything is best-effort.
func (s *PhotoService) purgeAsset(ctx context.Context, eventID uint, photoID string) {
	if err := s.DeletePhoto(ctx, eventID, photoID); err != nil {
		s.log.Warn("rollback of photo %s failed: %v", photoID, err)
	}
}

// CheckInGuest registers a guest at the booth before their batch arrives.
func (s *PhotoService) CheckInGuest(eventID uint, guestEmail string) error {
	guestEmail = normalizeEmail(guestEmail)
	if guestEmail == "" {
		return fmt.Errorf("%w: guest email is required", models.ErrValidation)
	}
	return s.checkInRepo.Create(&models.CheckIn{EventID: eventID, GuestEmail: guestEmail})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
