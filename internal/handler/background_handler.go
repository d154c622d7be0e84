package handler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/service"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

type BackgroundHandler struct {
	backgroundService *service.BackgroundService
	eventService      *service.EventService
	validator         *utils.Validator
}

func NewBackgroundHandler(backgroundService *service.BackgroundService, eventService *service.EventService, validator *utils.Validator) *BackgroundHandler {
	return &BackgroundHandler{
		backgroundService: backgroundService,
		eventService:      eventService,
		validator:         validator,
	}
}

func (h *BackgroundHandler) ListBackgrounds(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return fail(c, err)
	}

	backgrounds, err := h.backgroundService.ListForEvent(event.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(backgrounds, "Backgrounds retrieved successfully"))
}

// UploadBackground stores an event-scoped backdrop. Multipart form: "name",
// optional "description"/"category", and a "file" part.
func (h *BackgroundHandler) UploadBackground(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return fail(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Background file is required"))
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Failed to read background file"))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Failed to read background file"))
	}

	req := models.BackgroundRequest{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    models.BackgroundCategory(c.FormValue("category")),
		ContentType: fh.Header.Get("Content-Type"),
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	bg, err := h.backgroundService.Upload(c.Context(), event.ID, req, req.ContentType, data)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(bg, "Background uploaded"))
}

func (h *BackgroundHandler) DeleteBackground(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return fail(c, err)
	}

	backgroundID, err := strconv.ParseUint(c.Params("backgroundId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid background ID"))
	}

	if err := h.backgroundService.Delete(c.Context(), event.ID, uint(backgroundID)); err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Background deleted"))
}

// GenerateBackground creates a backdrop from a text prompt, spending one AI
// credit.
func (h *BackgroundHandler) GenerateBackground(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return fail(c, err)
	}

	var req models.GenerateBackgroundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	bg, err := h.backgroundService.GenerateAI(c.Context(), event.ID, req.Prompt)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(bg, "Background generated"))
}

func (h *BackgroundHandler) ownedEvent(c *fiber.Ctx) (*models.Event, error) {
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
