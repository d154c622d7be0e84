package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/service"
	"github.com/boothpix/photobooth-backend/pkg/composer"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

type EventHandler struct {
	eventService *service.EventService
	validator    *utils.Validator
}

func NewEventHandler(eventService *service.EventService, validator *utils.Validator) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		validator:    validator,
	}
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req models.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	event, err := h.eventService.CreateEvent(userID, req)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(event.ToResponse(), "Event created successfully"))
}

func (h *EventHandler) GetUserEvents(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	events, err := h.eventService.GetUserEvents(userID)
	if err != nil {
		return fail(c, err)
	}

	responses := make([]models.EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}

	return c.JSON(models.SuccessResponse(responses, "Events retrieved successfully"))
}

func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(models.SuccessResponse(event.ToResponse(), "Event retrieved successfully"))
}

// GetUsage reports consumption against the plan caps for the dashboard.
func (h *EventHandler) GetUsage(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(models.SuccessResponse(h.eventService.Usage(event), "Usage retrieved successfully"))
}

// GetEventByURL is the guest-facing lookup used by the booth frontend.
func (h *EventHandler) GetEventByURL(c *fiber.Ctx) error {
	event, err := h.eventService.GetEventByURL(c.Params("url"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(models.SuccessResponse(event.ToResponse(), "Event retrieved successfully"))
}

// GetOverlay serves the decorative frame the booth lays over its live camera
// preview. Size defaults to the composition canvas; unknown themes fall back
// to the default palette.
func (h *EventHandler) GetOverlay(c *fiber.Ctx) error {
	if _, err := h.eventService.GetEventByURL(c.Params("url")); err != nil {
		return fail(c, err)
	}

	width := c.QueryInt("width", composer.DefaultCanvasWidth)
	height := c.QueryInt("height", composer.DefaultCanvasHeight)

	overlay, err := composer.RenderOverlay(width, height, c.Query("theme"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	c.Set("Content-Type", "image/png")
	return c.Send(overlay)
}

// ownedEvent resolves the :id param and enforces operator ownership.
func (h *EventHandler) ownedEvent(c *fiber.Ctx) (*models.Event, error) {
	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event ID", models.ErrValidation)
	}

	userID, ok := currentUserID(c)
	if !ok {
		return nil, fmt.Errorf("%w: user not authenticated", models.ErrForbidden)
	}

	event, err := h.eventService.GetEvent(uint(eventID))
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, fmt.Errorf("%w: event belongs to another account", models.ErrForbidden)
	}
	return event, nil
}
