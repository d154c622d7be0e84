package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/boothpix/photobooth-backend/internal/config"
	"github.com/boothpix/photobooth-backend/internal/handler"
	"github.com/boothpix/photobooth-backend/internal/middleware"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/internal/service"
	"github.com/boothpix/photobooth-backend/pkg/bgremover"
	"github.com/boothpix/photobooth-backend/pkg/database"
	"github.com/boothpix/photobooth-backend/pkg/email"
	applogger "github.com/boothpix/photobooth-backend/pkg/logger"
	"github.com/boothpix/photobooth-backend/pkg/qrcode"
	"github.com/boothpix/photobooth-backend/pkg/storage"
	"github.com/boothpix/photobooth-backend/pkg/utils"
)

func main() {
	// Load .env when present; deployed environments inject real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	appLog := applogger.New("info")
	defer appLog.Sync()

	// NewDatabase migrates and seeds on open.
	db, err := database.NewDatabase(cfg.Database.URL)
	if err != nil {
		appLog.Fatal("Failed to connect to database: %v", err)
	}

	// Object storage: R2 when credentials are set, local filesystem otherwise.
	var objects storage.ObjectStorage
	if cfg.R2.AccountID != "" && cfg.R2.AccessKeyID != "" {
		objects, err = storage.NewR2Storage(storage.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			Bucket:          cfg.R2.Bucket,
		})
		if err != nil {
			appLog.Fatal("Failed to initialize R2 storage: %v", err)
		}
	} else {
		objects, err = storage.NewLocalStorage(cfg.Storage.LocalDir)
		if err != nil {
			appLog.Fatal("Failed to initialize local storage: %v", err)
		}
		appLog.Warn("R2 credentials not set, using local storage at %s", cfg.Storage.LocalDir)
	}

	staging, err := bgremover.NewStaging(cfg.BgRemover.StagingDir, cfg.BgRemover.SigningSecret)
	if err != nil {
		appLog.Fatal("Failed to initialize staging area: %v", err)
	}
	removerClient := bgremover.NewClient(
		cfg.BgRemover.APIBase,
		cfg.BgRemover.APIToken,
		cfg.PublicBaseURL,
		staging,
		cfg.BgRemover.Timeout,
	)

	emailService := email.NewEmailService(email.Options{
		ResendAPIKey: cfg.Email.ResendAPIKey,
		FromAddress:  cfg.Email.FromAddress,
		FromName:     cfg.Email.FromName,
		TemplatesDir: cfg.Email.TemplatesDir,
		OutboxDir:    cfg.Email.OutboxDir,
	})

	qrService := qrcode.NewQRService(cfg.PublicBaseURL + "/selections/")

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	backgroundRepo := repository.NewBackgroundRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)

	// Services
	eventService := service.NewEventService(eventRepo)
	photoService := service.NewPhotoService(
		photoRepo,
		eventRepo,
		checkInRepo,
		eventService,
		objects,
		removerClient,
		emailService,
		appLog,
	)
	backgroundService := service.NewBackgroundService(
		backgroundRepo,
		eventRepo,
		eventService,
		objects,
		removerClient,
		appLog,
	)
	deliveryService := service.NewDeliveryService(
		photoRepo,
		backgroundRepo,
		productionRepo,
		eventRepo,
		objects,
		emailService,
		appLog,
		cfg.PublicBaseURL,
		cfg.Tokens.DownloadTTL,
		cfg.Tokens.AttachmentTTL,
	)
	selectionService := service.NewSelectionService(
		selectionRepo,
		photoRepo,
		backgroundRepo,
		eventRepo,
		eventService,
		deliveryService,
		emailService,
		qrService,
		appLog,
		cfg.PublicBaseURL,
		cfg.Tokens.SelectionTTL,
	)

	validator := utils.NewValidator()

	// Handlers
	eventHandler := handler.NewEventHandler(eventService, validator)
	photoHandler := handler.NewPhotoHandler(photoService, eventService)
	backgroundHandler := handler.NewBackgroundHandler(backgroundService, eventService, validator)
	selectionHandler := handler.NewSelectionHandler(selectionService, eventService, validator)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService)
	bgSourceHandler := handler.NewBgSourceHandler(staging)

	// Router
	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "https://boothpix.co, https://www.boothpix.co, http://localhost:5173",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	// Guest-facing routes, no authentication.
	app.Get("/bgremover/source/:file", bgSourceHandler.ServeSource)
	app.Get("/productions/:token/download", deliveryHandler.Download)
	app.Get("/selections/:token", selectionHandler.ResolveToken)
	app.Post("/selections/:token", selectionHandler.SubmitSelections)

	api := app.Group("/api")

	// Public event routes
	api.Get("/events/url/:url", eventHandler.GetEventByURL)
	api.Get("/events/url/:url/overlay", eventHandler.GetOverlay)
	api.Post("/events/url/:url/photos", photoHandler.UploadPhotos)
	api.Post("/events/url/:url/check-in", photoHandler.CheckIn)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		events := api.Group("/events")
		events.Post("/", eventHandler.CreateEvent)
		events.Get("/", eventHandler.GetUserEvents)
		events.Get("/:id", eventHandler.GetEvent)
		events.Get("/:id/usage", eventHandler.GetUsage)
		events.Get("/:id/photos", photoHandler.GetEventPhotos)
		events.Delete("/:id/photos/:photoId", photoHandler.DeletePhoto)

		events.Get("/:id/backgrounds", backgroundHandler.ListBackgrounds)
		events.Post("/:id/backgrounds", backgroundHandler.UploadBackground)
		events.Delete("/:id/backgrounds/:backgroundId", backgroundHandler.DeleteBackground)
		events.Post("/:id/backgrounds/generate", backgroundHandler.GenerateBackground)

		events.Post("/:id/selection-tokens", selectionHandler.CreateToken)

		productions := api.Group("/productions")
		productions.Post("/:id/resend", deliveryHandler.ResendEmail)
		productions.Delete("/:id", deliveryHandler.PurgeProduction)
	}

	appLog.Info("Starting server on port %s", cfg.HTTP.Port)
	log.Fatal(app.Listen(":" + cfg.HTTP.Port))
}
