package handler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/service"
	"github.com/boothpix/photobooth-backend/pkg/archive"
)

type DeliveryHandler struct {
	deliveryService *service.DeliveryService
}

func NewDeliveryHandler(deliveryService *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
	}
}

// Download serves a production bundle by token. A single attachment streams
// directly; multiple attachments stream as a zip assembled entry by entry.
// Expired tokens get 410, unknown ones 404.
func (h *DeliveryHandler) Download(c *fiber.Ctx) error {
	production, err := h.deliveryService.ResolveDownload(c.Params("token"))
	if err != nil {
		if errorsIsExpired(err) {
			return c.Status(fiber.StatusGone).JSON(models.ErrorResponse("Download link has expired"))
		}
		return fail(c, err)
	}
	if len(production.Attachments) == 0 {
		return fail(c, fmt.Errorf("%w: production has no attachments", models.ErrNotFound))
	}

	h.deliveryService.CountDownload(production)

	if len(production.Attachments) == 1 {
		att := production.Attachments[0]
		buf, err := h.deliveryService.FetchAttachment(c.Context(), att)
		if err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, att.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.FileName))
		return c.Send(buf)
	}

	entries := make([]archive.Entry, 0, len(production.Attachments))
	for _, att := range production.Attachments {
		att := att
		entries = append(entries, archive.Entry{
			Name: att.FileName,
			Open: func() (io.ReadCloser, error) {
				// The zip streams after the handler returns; the request
				// context is no longer safe to hold.
				buf, err := h.deliveryService.FetchAttachment(context.Background(), att)
				if err != nil {
					return nil, err
				}
				return io.NopCloser(bytes.NewReader(buf)), nil
			},
		})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "photos-"+production.DownloadToken+".zip"))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := archive.StreamZip(w, entries); err != nil {
			// Too late for a status change mid-stream; the truncated zip is
			// the client's signal.
			return
		}
	})
	return nil
}

// ResendEmail re-dispatches a production's notification email.
func (h *DeliveryHandler) ResendEmail(c *fiber.Ctx) error {
	productionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid production ID"))
	}

	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	if err := h.deliveryService.ResendEmail(c.Context(), uint(productionID), userID); err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Email resent"))
}

// PurgeProduction is the explicit admin cleanup of a delivered bundle.
func (h *DeliveryHandler) PurgeProduction(c *fiber.Ctx) error {
	productionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid production ID"))
	}

	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	if err := h.deliveryService.PurgeProduction(c.Context(), uint(productionID), userID); err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Production deleted"))
}
