package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
)

// fail maps service-layer sentinels onto HTTP statuses and renders the shared
// error envelope. Anything unmapped is a 500.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, models.ErrPaymentRequired):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, models.ErrUpstream):
		status = fiber.StatusBadGateway
	case errors.Is(err, models.ErrExpiredOrInvalid):
		status = fiber.StatusGone
	}

	return c.Status(status).JSON(models.ErrorResponse(err.Error()))
}

func errorsIsExpired(err error) bool {
	return errors.Is(err, models.ErrExpiredOrInvalid)
}

// currentUserID pulls the authenticated operator's ID set by the auth
// middleware.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok
}
