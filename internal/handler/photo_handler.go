package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/service"
)

type PhotoHandler struct {
	photoService *service.PhotoService
	eventService *service.EventService
}

func NewPhotoHandler(photoService *service.PhotoService, eventService *service.EventService) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		eventService: eventService,
	}
}

// UploadPhotos is the guest-facing batch intake. Multipart form: "email",
// optional "remove_background" flag, and one or more "photos" files.
func (h *PhotoHandler) UploadPhotos(c *fiber.Ctx) error {
	event, err := h.eventService.GetEventByURL(c.Params("url"))
	if err != nil {
		return fail(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid form data"))
	}

	guestEmail := formValue(form, "email")
	removeBackground := formValue(form, "remove_background") == "true"

	fileHeaders := form.File["photos"]
	if len(fileHeaders) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No files uploaded"))
	}

	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		data, err := readUpload(fh)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(
				models.ErrorResponse(fmt.Sprintf("Failed to read %q", fh.Filename)))
		}
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	batch, err := h.photoService.UploadBatch(c.Context(), event.ID, guestEmail, files, removeBackground)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(batch, "Photos uploaded"))
}

// CheckIn registers a guest at the booth ahead of their upload batch.
func (h *PhotoHandler) CheckIn(c *fiber.Ctx) error {
	event, err := h.eventService.GetEventByURL(c.Params("url"))
	if err != nil {
		return fail(c, err)
	}

	var req models.CreateSelectionTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.photoService.CheckInGuest(event.ID, req.GuestEmail); err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Checked in"))
}

// GetEventPhotos lists every photo on an event for its operator.
func (h *PhotoHandler) GetEventPhotos(c *fiber.Ctx) error {
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
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Event belongs to another account"))
	}

	photos, err := h.photoService.GetEventPhotos(event.ID)
	if err != nil {
		return fail(c, err)
	}

	responses := make([]models.PhotoResponse, 0, len(photos))
	for i := range photos {
		responses = append(responses, photos[i].ToResponse())
	}

	return c.JSON(models.SuccessResponse(responses, "Photos retrieved successfully"))
}

// DeletePhoto purges one asset, bytes and index entry both.
func (h *PhotoHandler) DeletePhoto(c *fiber.Ctx) error {
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
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Event belongs to another account"))
	}

	if err := h.photoService.DeletePhoto(c.Context(), event.ID, c.Params("photoId")); err != nil {
		return fail(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Photo deleted"))
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
