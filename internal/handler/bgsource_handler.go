package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/pkg/bgremover"
)

// BgSourceHandler serves staged uploads back to the remote cutout service.
// The remote pulls the bytes through the signed URL we hand it; nothing else
// may read the staging area.
type BgSourceHandler struct {
	staging *bgremover.Staging
}

func NewBgSourceHandler(staging *bgremover.Staging) *BgSourceHandler {
	return &BgSourceHandler{
		staging: staging,
	}
}

func (h *BgSourceHandler) ServeSource(c *fiber.Ctx) error {
	file := c.Params("file")
	token := c.Query("token")

	if !h.staging.VerifyToken(file, token) {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid token"))
	}

	data, contentType, err := h.staging.Read(file)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("File not found"))
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
