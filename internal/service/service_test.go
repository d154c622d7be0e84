package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/boothpix/photobooth-backend/internal/models"
	"github.com/boothpix/photobooth-backend/internal/repository"
	"github.com/boothpix/photobooth-backend/pkg/bgremover"
	"github.com/boothpix/photobooth-backend/pkg/email"
	"github.com/boothpix/photobooth-backend/pkg/logger"
	"github.com/boothpix/photobooth-backend/pkg/storage"
)

// memStorage is an in-memory ObjectStorage for service tests.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	ctypes  map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects: make(map[string][]byte),
		ctypes:  make(map[string]string),
	}
}

func (m *memStorage) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.ctypes[key] = contentType
	return nil
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return append([]byte(nil), data...), m.ctypes[key], nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.ctypes, key)
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// fakeRemover scripts the remote cutout service per filename.
type fakeRemover struct {
	configured bool
	failFor    map[string]bool
	cutout     []byte
	genData    []byte
	genErr     error
}

func (f *fakeRemover) RemoveBackground(_ context.Context, filename, _ string, _ []byte) (*bgremover.Cutout, error) {
	if f.failFor[filename] {
		return nil, fmt.Errorf("%w: simulated failure", bgremover.ErrService)
	}
	data := f.cutout
	if data == nil {
		data = []byte("cutout")
	}
	return &bgremover.Cutout{Data: data, ContentType: "image/png"}, nil
}

func (f *fakeRemover) GenerateBackground(_ context.Context, _ string) ([]byte, string, error) {
	if f.genErr != nil {
		return nil, "", f.genErr
	}
	data := f.genData
	if data == nil {
		data = []byte("generated")
	}
	return data, "image/png", nil
}

func (f *fakeRemover) Configured() bool { return f.configured }

// fakeMailer records outbound mail.
type fakeMailer struct {
	mu            sync.Mutex
	deliveries    int
	downloadLinks []string
	invites       []string
	receipts      int
	failSend      bool
}

func (f *fakeMailer) SendDeliveryEmail(_, _, _ string, _ []email.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return fmt.Errorf("smtp down")
	}
	f.deliveries++
	return nil
}

func (f *fakeMailer) SendDownloadLinkEmail(_, _, _, downloadURL string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return fmt.Errorf("smtp down")
	}
	f.downloadLinks = append(f.downloadLinks, downloadURL)
	return nil
}

func (f *fakeMailer) SendSelectionInviteEmail(_, _, selectionURL string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, selectionURL)
	return nil
}

func (f *fakeMailer) SendUploadReceivedEmail(_, _ string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts++
	return nil
}

type testEnv struct {
	db             *gorm.DB
	objects        *memStorage
	remover        *fakeRemover
	mailer         *fakeMailer
	eventRepo      *repository.EventRepository
	photoRepo      *repository.PhotoRepository
	backgroundRepo *repository.BackgroundRepository
	productionRepo *repository.ProductionRepository
	selectionRepo  *repository.SelectionRepository
	checkInRepo    *repository.CheckInRepository
	events         *EventService
	photos         *PhotoService
	backgrounds    *BackgroundService
	delivery       *DeliveryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A pooled second connection would see its own empty memory database.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(
		&models.Event{},
		&models.PhotoAsset{},
		&models.Background{},
		&models.ProductionSet{},
		&models.Attachment{},
		&models.SelectionToken{},
		&models.CheckIn{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:             db,
		objects:        newMemStorage(),
		remover:        &fakeRemover{configured: true, failFor: map[string]bool{}},
		mailer:         &fakeMailer{},
		eventRepo:      repository.NewEventRepository(db),
		photoRepo:      repository.NewPhotoRepository(db),
		backgroundRepo: repository.NewBackgroundRepository(db),
		productionRepo: repository.NewProductionRepository(db),
		selectionRepo:  repository.NewSelectionRepository(db),
		checkInRepo:    repository.NewCheckInRepository(db),
	}

	log := logger.NewNop()
	env.events = NewEventService(env.eventRepo)
	env.photos = NewPhotoService(env.photoRepo, env.eventRepo, env.checkInRepo, env.events, env.objects, env.remover, env.mailer, log)
	env.backgrounds = NewBackgroundService(env.backgroundRepo, env.eventRepo, env.events, env.objects, env.remover, log)
	env.delivery = NewDeliveryService(
		env.photoRepo, env.backgroundRepo, env.productionRepo, env.eventRepo,
		env.objects, env.mailer, log,
		"http://test.local", 168*time.Hour, 72*time.Hour,
	)

	return env
}

func (e *testEnv) selections(publicBase string, t *testing.T) *SelectionService {
	t.Helper()
	return NewSelectionService(
		e.selectionRepo, e.photoRepo, e.backgroundRepo, e.eventRepo,
		e.events, e.delivery, e.mailer, nil, logger.NewNop(),
		publicBase, 72*time.Hour,
	)
}

func (e *testEnv) createEvent(t *testing.T, plan string) *models.Event {
	t.Helper()
	event, err := e.events.CreateEvent(1, models.EventRequest{Title: "Smith Wedding", BusinessName: "BoothPix Co", Plan: plan})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func whiteNRGBA() color.NRGBA { return color.NRGBA{R: 255, G: 255, B: 255, A: 255} }
func blueNRGBA() color.NRGBA  { return color.NRGBA{B: 255, A: 255} }

func uploadFiles(t *testing.T, n int) []UploadFile {
	t.Helper()
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	files := make([]UploadFile, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, UploadFile{
			Name:        fmt.Sprintf("booth-%02d.png", i+1),
			ContentType: "image/png",
			Data:        solidPNG(t, 40, 30, white),
		})
	}
	return files
}
