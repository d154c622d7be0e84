package service

import (
	"fmt"
	"time"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

// EventService owns event lifecycle plus the usage & plan gate: every other
// component asks it for capability booleans instead of comparing plan names.
type EventService struct {
	eventRepo *repository.EventRepository
}

func NewEventService(eventRepo *repository.EventRepository) *EventService {
	return &EventService{
		eventRepo: eventRepo,
	}
}

func (s *EventService) CreateEvent(userID uint, req models.EventRequest) (*models.Event, error) {
	policy := models.PolicyFor(req.Plan)

	event := &models.Event{
		UserID:       userID,
		Title:        req.Title,
		BusinessName: req.BusinessName,
		URL:          utils.GenerateRandomString(10),
		Plan:         policy.Name,
		Status:       models.EventStatusLive,
		PhotoCap:     policy.PhotoCap,
		AICredits:    policy.AICredits,
		ExpiresAt:    time.Now().Add(30 * 24 * time.Hour),
	}

	return s.eventRepo.Create(event)
}

func (s *EventService) GetEvent(eventID uint) (*models.Event, error) {
	return s.eventRepo.GetByID(eventID)
}

func (s *EventService) GetEventByURL(url string) (*models.Event, error) {
	return s.eventRepo.GetByURL(url)
}

func (s *EventService) GetUserEvents(userID uint) ([]models.Event, error) {
	return s.eventRepo.GetUserEvents(userID)
}

// Usage reports consumption against plan caps for dashboards and the guest
// selection screen.
func (s *EventService) Usage(event *models.Event) models.UsageReport {
	return models.UsageReport{
		PhotoUsed:   event.PhotoUsed,
		PhotoCap:    event.PhotoCap,
		RemainingAI: event.RemainingAICredits(),
		Watermark:   event.Policy().Watermark,
	}
}

// RequiresPayment reports whether the event is blocked on an outstanding
// payment.
func (s *EventService) RequiresPayment(event *models.Event) bool {
	return event.PaymentDue
}

// CheckAdmission runs the fail-fast gate before any per-file work: event
// liveness, payment state, plan capabilities and quota headroom. The whole
// batch is rejected when it would exceed the photo cap.
func (s *EventService) CheckAdmission(event *models.Event, batchSize int, wantRemoval, wantAI bool) error {
	if event.Status != models.EventStatusLive {
		return fmt.Errorf("%w: event is not live", models.ErrForbidden)
	}
	if s.RequiresPayment(event) {
		return fmt.Errorf("%w: event has an outstanding payment", models.ErrPaymentRequired)
	}

	policy := event.Policy()

	if wantRemoval && !policy.BackgroundRemoval {
		return fmt.Errorf("%w: plan does not include background removal", models.ErrForbidden)
	}

	if wantAI {
		if policy.AICredits == 0 {
			return fmt.Errorf("%w: plan does not include AI backgrounds", models.ErrForbidden)
		}
		if event.RemainingAICredits() == 0 {
			return fmt.Errorf("%w: no AI credits remaining", models.ErrPaymentRequired)
		}
	}

	if remaining := event.RemainingPhotos(); remaining >= 0 && batchSize > remaining {
		return fmt.Errorf("%w: batch of %d exceeds remaining photo quota of %d",
			models.ErrPaymentRequired, batchSize, remaining)
	}

	return nil
}
