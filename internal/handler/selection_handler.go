package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/service"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

type SelectionHandler struct {
	selectionService *service.SelectionService
	eventService     *service.EventService
	validator        *utils.Validator
}

func NewSelectionHandler(selectionService *service.SelectionService, eventService *service.EventService, validator *utils.Validator) *SelectionHandler {
	return &SelectionHandler{
		selectionService: selectionService,
		eventService:     eventService,
		validator:        validator,
	}
}

// CreateToken mints a selection invite for a guest; operator-only.
func (h *SelectionHandler) CreateToken(c *fiber.Ctx) error {
	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	event, err := h.eventService.GetEvent(uint(eventID))
	if err != nil {
		return fail(c, err)
	}
	if event.UserID != userID {
		return fail(c, fmt.Errorf("%w: event belongs to another account", models.ErrForbidden))
	}

	var req models.CreateSelectionTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	token, err := h.selectionService.CreateToken(event.ID, req.GuestEmail)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(token, "Selection token created"))
}

// ResolveToken is the guest's browsing context: their photos, available
// backdrops and the plan's selection allowance.
func (h *SelectionHandler) ResolveToken(c *fiber.Ctx) error {
	selCtx, err := h.selectionService.Resolve(c.Params("token"))
	if err != nil {
		return failTokenError(c, err)
	}
	return c.JSON(models.SuccessResponse(selCtx, "Selection context retrieved"))
}

// SubmitSelections redeems the token against the guest's favorites and
// triggers delivery.
func (h *SelectionHandler) SubmitSelections(c *fiber.Ctx) error {
	var req models.SubmitSelectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	production, err := h.selectionService.Submit(c.Context(), c.Params("token"), req.Selections)
	if err != nil {
		return failTokenError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"production_id": production.ID,
		"attachments":   len(production.Attachments),
	}, "Selections delivered"))
}

// failTokenError renders token-lifecycle failures with the uniform guest
// message so unknown, expired and used tokens are indistinguishable.
func failTokenError(c *fiber.Ctx, err error) error {
	if errorsIsExpired(err) {
		return c.Status(fiber.StatusGone).JSON(models.ErrorResponse("Invalid or expired link"))
	}
	return fail(c, err)
}
