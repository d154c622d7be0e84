package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/pkg/logger"
	"github.com/boothpix/photobooth-backend/pkg/qrcode"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

// SelectionService issues single-use selection tokens, resolves them into the
// guest-facing browsing context, and turns submitted favorites into a
// delivery.
type SelectionService struct {
	selectionRepo   *repository.SelectionRepository
	photoRepo       *repository.PhotoRepository
	backgroundRepo  *repository.BackgroundRepository
	eventRepo       *repository.EventRepository
	eventService    *EventService
	deliveryService *DeliveryService
	mailer          Mailer
	qr              *qrcode.QRService
	log             *logger.Logger

	publicBaseURL string
	selectionTTL  time.Duration
}

func NewSelectionService(
	selectionRepo *repository.SelectionRepository,
	photoRepo *repository.PhotoRepository,
	backgroundRepo *repository.BackgroundRepository,
	eventRepo *repository.EventRepository,
	eventService *EventService,
	deliveryService *DeliveryService,
	mailer Mailer,
	qr *qrcode.QRService,
	log *logger.Logger,
	publicBaseURL string,
	selectionTTL time.Duration,
) *SelectionService {
	if selectionTTL <= 0 {
		selectionTTL = 72 * time.Hour
	}

	return &SelectionService{
		selectionRepo:   selectionRepo,
		photoRepo:       photoRepo,
		backgroundRepo:  backgroundRepo,
		eventRepo:       eventRepo,
		eventService:    eventService,
		deliveryService: deliveryService,
		mailer:          mailer,
		qr:              qr,
		log:             log,
		publicBaseURL:   publicBaseURL,
		selectionTTL:    selectionTTL,
	}
}

// CreateToken mints a selection token for a guest and mails the invite with a
// QR code. Invite delivery is best-effort; the token link can be re-shared
// out of band.
func (s *SelectionService) CreateToken(eventID uint, guestEmail string) (*models.SelectionToken, error) {
	guestEmail = normalizeEmail(guestEmail)
	if guestEmail == "" {
		return nil, fmt.Errorf("%w: guest email is required", models.ErrValidation)
	}

	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	token := &models.SelectionToken{
		EventID:    event.ID,
		GuestEmail: guestEmail,
		Token:      utils.GenerateSecureToken(24),
		ExpiresAt:  time.Now().Add(s.selectionTTL),
	}
	if err := s.selectionRepo.Create(token); err != nil {
		return nil, fmt.Errorf("failed to create selection token: %w", err)
	}

	selectionURL := fmt.Sprintf("%s/selections/%s", s.publicBaseURL, token.Token)
	var qrPNG []byte
	if s.qr != nil {
		qrPNG, err = s.qr.GenerateQRCode(token.Token, 256)
		if err != nil {
			s.log.Warn("QR generation for selection token failed: %v", err)
			qrPNG = nil
		}
	}
	if err := s.mailer.SendSelectionInviteEmail(guestEmail, event.Title, selectionURL, qrPNG); err != nil {
		s.log.Warn("selection invite to %s failed: %v", guestEmail, err)
	}

	return token, nil
}

// resolveToken fetches a redeemable token and its event. Unknown, expired and
// used tokens all come back as ErrExpiredOrInvalid so the response leaks
// nothing about which case applied.
func (s *SelectionService) resolveToken(token string) (*models.SelectionToken, *models.Event, error) {
	st, err := s.selectionRepo.GetByToken(token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: selection token", models.ErrExpiredOrInvalid)
		}
		return nil, nil, err
	}
	if !st.Redeemable(time.Now()) {
		return nil, nil, fmt.Errorf("%w: selection token", models.ErrExpiredOrInvalid)
	}

	event, err := s.eventRepo.GetByID(st.EventID)
	if err != nil {
		return nil, nil, err
	}
	return st, event, nil
}

// Resolve builds the guest's browsing context: their photos, the backdrops
// available to the event, and how many favorites the plan allows.
func (s *SelectionService) Resolve(token string) (*models.SelectionContext, error) {
	st, event, err := s.resolveToken(token)
	if err != nil {
		return nil, err
	}

	photos, err := s.photoRepo.GetByEventAndGuest(event.ID, st.GuestEmail)
	if err != nil {
		return nil, err
	}
	backgrounds, err := s.backgroundRepo.ListForEvent(event.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.PhotoResponse, 0, len(photos))
	for i := range photos {
		responses = append(responses, photos[i].ToResponse())
	}

	policy := event.Policy()

	return &models.SelectionContext{
		Email:             st.GuestEmail,
		Photos:            responses,
		Backgrounds:       backgrounds,
		AllowedSelections: policy.AllowedSelections,
		Usage:             s.eventService.Usage(event),
		Event: models.SelectionEventInfo{
			Name:      event.Title,
			Plan:      event.Plan,
			Watermark: policy.Watermark,
		},
	}, nil
}

// Submit redeems the token against a set of favorites and hands them to
// delivery. The token is consumed only after delivery succeeds, so a failed
// composition leaves it redeemable for a retry.
func (s *SelectionService) Submit(ctx context.Context, token string, selections []models.Selection) (*models.ProductionSet, error) {
	st, event, err := s.resolveToken(token)
	if err != nil {
		return nil, err
	}

	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: no selections submitted", models.ErrValidation)
	}
	if limit := event.Policy().AllowedSelections; len(selections) > limit {
		return nil, fmt.Errorf("%w: %d selections exceeds plan limit of %d",
			models.ErrValidation, len(selections), limit)
	}

	production, err := s.deliveryService.Deliver(ctx, event, st.GuestEmail, selections)
	if err != nil {
		return nil, err
	}

	if err := s.selectionRepo.MarkUsed(st.Token); err != nil {
		s.log.Warn("failed to mark selection token used for event %d: %v", event.ID, err)
	}

	return production, nil
}
