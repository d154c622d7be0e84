package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/pkg/logger"
	"github.com/boothpix/photobooth-backend/pkg/storage"
)

// BackgroundService manages the backdrop catalog: the shared default set,
// event-uploaded backdrops and AI-generated ones.
type BackgroundService struct {
	backgroundRepo *repository.BackgroundRepository
	eventRepo      *repository.EventRepository
	eventService   *EventService
	objects        storage.ObjectStorage
	remover        BackgroundRemover
	log            *logger.Logger
}

func NewBackgroundService(
	backgroundRepo *repository.BackgroundRepository,
	eventRepo *repository.EventRepository,
	eventService *EventService,
	objects storage.ObjectStorage,
	remover BackgroundRemover,
	log *logger.Logger,
) *BackgroundService {
	return &BackgroundService{
		backgroundRepo: backgroundRepo,
		eventRepo:      eventRepo,
		eventService:   eventService,
		objects:        objects,
		remover:        remover,
		log:            log,
	}
}

func (s *BackgroundService) ListForEvent(eventID uint) ([]models.Background, error) {
	return s.backgroundRepo.ListForEvent(eventID)
}

// Upload stores an event-scoped backdrop supplied by the operator.
func (s *BackgroundService) Upload(ctx context.Context, eventID uint, req models.BackgroundRequest, contentType string, data []byte) (*models.Background, error) {
	if !isValidImageType(contentType) {
		return nil, fmt.Errorf("%w: unsupported file type %q", models.ErrValidation, contentType)
	}
	if int64(len(data)) > maxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d byte limit", models.ErrValidation, maxUploadSize)
	}

	category := req.Category
	if category == "" {
		category = models.CategoryBackground
	}

	key := storage.BackgroundKey(eventID, uuid.NewString())
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store background: %w", err)
	}

	bg := &models.Background{
		EventID:     &eventID,
		Name:        req.Name,
		Description: req.Description,
		Category:    category,
		StorageKey:  key,
		Origin:      models.OriginEvent,
		Enabled:     true,
	}
	if err := s.backgroundRepo.Create(bg); err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to clean up background object %s: %v", key, derr)
		}
		return nil, err
	}

	return bg, nil
}

// Delete removes an event-owned backdrop, bytes first. The shared default set
// is immune to tenant deletion.
func (s *BackgroundService) Delete(ctx context.Context, eventID, backgroundID uint) error {
	bg, err := s.backgroundRepo.GetByID(backgroundID)
	if err != nil {
		return err
	}
	if bg.Origin == models.OriginDefault || bg.EventID == nil {
		return fmt.Errorf("%w: default backgrounds cannot be deleted", models.ErrForbidden)
	}
	if *bg.EventID != eventID {
		return fmt.Errorf("%w: background %d", models.ErrNotFound, backgroundID)
	}

	if err := s.objects.Delete(ctx, bg.StorageKey); err != nil {
		s.log.Warn("failed to delete background object %s: %v", bg.StorageKey, err)
	}

	return s.backgroundRepo.DeleteEventScoped(backgroundID, eventID)
}

// GenerateAI produces a backdrop from a text prompt. One credit is reserved
// up front with the guarded counter and refunded if generation or storage
// fails, so credits only stay spent for backdrops that exist.
func (s *BackgroundService) GenerateAI(ctx context.Context, eventID uint, prompt string) (*models.Background, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	if err := s.eventService.CheckAdmission(event, 0, false, true); err != nil {
		return nil, err
	}
	if !s.remover.Configured() {
		return nil, fmt.Errorf("%w: generation service is not configured", models.ErrUpstream)
	}

	if err := s.eventRepo.IncrementAIUsage(event.ID, 1); err != nil {
		return nil, err
	}

	refund := func() {
		if err := s.eventRepo.RefundAIUsage(event.ID, 1); err != nil {
			s.log.Warn("AI credit refund failed for event %d: %v", event.ID, err)
		}
	}

	data, contentType, err := s.remover.GenerateBackground(ctx, prompt)
	if err != nil {
		refund()
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	key := storage.BackgroundKey(event.ID, uuid.NewString())
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		refund()
		return nil, fmt.Errorf("failed to store generated background: %w", err)
	}

	bg := &models.Background{
		EventID:     &event.ID,
		Name:        prompt,
		Description: "AI generated",
		Category:    models.CategoryBackground,
		StorageKey:  key,
		Origin:      models.OriginAI,
		Enabled:     true,
	}
	if err := s.backgroundRepo.Create(bg); err != nil {
		refund()
		if derr := s.objects.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to clean up background object %s: %v", key, derr)
		}
		return nil, err
	}

	return bg, nil
}
