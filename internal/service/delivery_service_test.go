package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/boothpix/photobooth-backend/internal/models"
)

// uploadOne ingests a single white photo and returns its asset ID.
func uploadOne(t *testing.T, env *testEnv, event *models.Event, removal bool) string {
	t.Helper()
	batch, err := env.photos.UploadBatch(context.Background(), event.ID, "guest@example.com", uploadFiles(t, 1), removal)
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}
	return batch.Results[0].PhotoID
}

func hasDarkPixel(t *testing.T, buf []byte) bool {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r>>8 < 240 || g>>8 < 240 || bl>>8 < 240 {
				return true
			}
		}
	}
	return false
}

func TestDeliverWatermarksFreeTierOnly(t *testing.T) {
	for _, tc := range []struct {
		plan          string
		wantWatermark bool
	}{
		{"free", true},
		{"plus", false},
	} {
		t.Run(tc.plan, func(t *testing.T) {
			env := newTestEnv(t)
			event := env.createEvent(t, tc.plan)
			photoID := uploadOne(t, env, event, false)

			production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
				[]models.Selection{{PhotoID: photoID}})
			if err != nil {
				t.Fatalf("Deliver: %v", err)
			}
			if len(production.Attachments) != 1 {
				t.Fatalf("got %d attachments, want 1", len(production.Attachments))
			}

			buf, err := env.delivery.FetchAttachment(context.Background(), production.Attachments[0])
			if err != nil {
				t.Fatalf("fetch attachment: %v", err)
			}
			if got := hasDarkPixel(t, buf); got != tc.wantWatermark {
				t.Errorf("watermarked = %v, want %v", got, tc.wantWatermark)
			}
		})
	}
}

func TestDeliverSingleAttachmentCleansSources(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	photoID := uploadOne(t, env, event, false)

	production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
		[]models.Selection{{PhotoID: photoID}})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	// Single attachment rides inline; the delivered source is purged eagerly.
	if env.mailer.deliveries != 1 {
		t.Errorf("inline deliveries = %d, want 1", env.mailer.deliveries)
	}
	if _, err := env.photoRepo.GetByID(photoID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("source photo still indexed after inline delivery: %v", err)
	}

	// Inline channel uses the shorter attachment TTL.
	ttl := time.Until(production.TokenExpiresAt)
	if ttl > 73*time.Hour {
		t.Errorf("inline delivery TTL = %v, want about 72h", ttl)
	}
}

func TestDeliverMultipleAttachmentsUsesDownloadLink(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "plus")

	batch, err := env.photos.UploadBatch(context.Background(), event.ID, "guest@example.com", uploadFiles(t, 3), false)
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}

	selections := make([]models.Selection, 0, 3)
	for _, r := range batch.Results {
		selections = append(selections, models.Selection{PhotoID: r.PhotoID})
	}

	production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com", selections)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if len(production.Attachments) != 3 {
		t.Fatalf("got %d attachments, want 3", len(production.Attachments))
	}
	if env.mailer.deliveries != 0 || len(env.mailer.downloadLinks) != 1 {
		t.Errorf("deliveries=%d links=%d, want link channel only", env.mailer.deliveries, len(env.mailer.downloadLinks))
	}

	// Link channel keeps sources; cleanup is expiry-driven.
	for _, r := range batch.Results {
		if _, err := env.photoRepo.GetByID(r.PhotoID); err != nil {
			t.Errorf("source photo %s gone after link delivery: %v", r.PhotoID, err)
		}
	}

	if ttl := time.Until(production.TokenExpiresAt); ttl < 100*time.Hour {
		t.Errorf("link delivery TTL = %v, want about 168h", ttl)
	}

	// Filenames are ordered per selection order.
	if production.Attachments[0].FileName != "photo-01.png" || production.Attachments[2].FileName != "photo-03.png" {
		t.Errorf("attachment names = %q..%q", production.Attachments[0].FileName, production.Attachments[2].FileName)
	}
}

func TestDeliverComposesAgainstBackground(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "plus")

	env.remover.cutout = solidPNG(t, 40, 30, blueNRGBA())
	photoID := uploadOne(t, env, event, true)

	bgKey := "events/1/backgrounds/test-bg"
	if err := env.objects.Put(context.Background(), bgKey, solidPNG(t, 200, 100, whiteNRGBA()), "image/png"); err != nil {
		t.Fatalf("store background: %v", err)
	}
	background := &models.Background{EventID: &event.ID, Name: "Plain", StorageKey: bgKey, Origin: models.OriginEvent, Enabled: true}
	if err := env.backgroundRepo.Create(background); err != nil {
		t.Fatalf("create background: %v", err)
	}

	production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
		[]models.Selection{{PhotoID: photoID, BackgroundID: &background.ID}})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	buf, err := env.delivery.FetchAttachment(context.Background(), production.Attachments[0])
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Default canvas with the blue cutout centered over the white backdrop.
	if img.Bounds().Dx() != 1920 || img.Bounds().Dy() != 1080 {
		t.Fatalf("canvas = %dx%d, want 1920x1080", img.Bounds().Dx(), img.Bounds().Dy())
	}
	_, _, b, _ := img.At(960, 540).RGBA()
	if b>>8 < 200 {
		t.Error("canvas center is not the foreground cutout")
	}
}

func TestDeliverFallsBackWhenCutoutMissing(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "plus")
	photoID := uploadOne(t, env, event, true)

	// Simulate lost cutout bytes; the index row still references them.
	photo, _ := env.photoRepo.GetByID(photoID)
	if err := env.objects.Delete(context.Background(), photo.CutoutKey); err != nil {
		t.Fatalf("drop cutout: %v", err)
	}

	production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
		[]models.Selection{{PhotoID: photoID}})
	if err != nil {
		t.Fatalf("Deliver with missing cutout: %v", err)
	}
	if len(production.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(production.Attachments))
	}
}

func TestDeliverRejectsForeignPhoto(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	other := env.createEvent(t, "free")
	photoID := uploadOne(t, env, other, false)

	_, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
		[]models.Selection{{PhotoID: photoID}})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for cross-event photo", err)
	}
}

func TestDeliverRejectsOtherGuestsPhoto(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	photoID := uploadOne(t, env, event, false)

	_, err := env.delivery.Deliver(context.Background(), event, "other@example.com",
		[]models.Selection{{PhotoID: photoID}})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for another guest's photo", err)
	}
	if _, err := env.photoRepo.GetByID(photoID); err != nil {
		t.Errorf("photo gone after rejected delivery: %v", err)
	}
}

func TestDeliverEmailFailureKeepsProduction(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	photoID := uploadOne(t, env, event, false)

	env.mailer.failSend = true
	production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
		[]models.Selection{{PhotoID: photoID}})
	if err != nil {
		t.Fatalf("Deliver must survive email failure: %v", err)
	}

	// The production stays resolvable so the resend endpoint can remediate.
	if _, err := env.delivery.ResolveDownload(production.DownloadToken); err != nil {
		t.Errorf("download token unusable after email failure: %v", err)
	}

	env.mailer.failSend = false
	if err := env.delivery.ResendEmail(context.Background(), production.ID, event.UserID); err != nil {
		t.Fatalf("ResendEmail: %v", err)
	}
	if env.mailer.deliveries != 1 {
		t.Errorf("deliveries after resend = %d, want 1", env.mailer.deliveries)
	}
}

func TestResolveDownloadExpiryVsMissing(t *testing.T) {
	env := newTestEnv(t)

	expired := &models.ProductionSet{
		EventID:        1,
		Email:          "guest@example.com",
		DownloadToken:  "expired-token",
		TokenExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := env.productionRepo.Create(expired); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.delivery.ResolveDownload("expired-token"); !errors.Is(err, models.ErrExpiredOrInvalid) {
		t.Errorf("expired token err = %v, want ErrExpiredOrInvalid", err)
	}
	if _, err := env.delivery.ResolveDownload("never-existed"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown token err = %v, want ErrNotFound", err)
	}
}

func TestPurgeProductionChecksOwnership(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "plus")

	batch, err := env.photos.UploadBatch(context.Background(), event.ID, "guest@example.com", uploadFiles(t, 2), false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	production, err := env.delivery.Deliver(context.Background(), event, "guest@example.com",
		[]models.Selection{{PhotoID: batch.Results[0].PhotoID}, {PhotoID: batch.Results[1].PhotoID}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if err := env.delivery.PurgeProduction(context.Background(), production.ID, 999); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("foreign purge err = %v, want ErrForbidden", err)
	}

	if err := env.delivery.PurgeProduction(context.Background(), production.ID, event.UserID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := env.productionRepo.GetByID(production.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("production still present after purge: %v", err)
	}
}
