package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/boothpix/photobooth-backend/internal/models"
)

func TestCreateTokenSendsInvite(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	svc := env.selections("http://test.local", t)

	token, err := svc.CreateToken(event.ID, "Guest@Example.COM")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if token.GuestEmail != "guest@example.com" {
		t.Errorf("guest email = %q, want normalized", token.GuestEmail)
	}
	if token.Token == "" {
		t.Fatal("empty token string")
	}
	if len(env.mailer.invites) != 1 {
		t.Fatalf("invites sent = %d, want 1", len(env.mailer.invites))
	}
	if !strings.Contains(env.mailer.invites[0], token.Token) {
		t.Errorf("invite URL %q does not carry the token", env.mailer.invites[0])
	}
}

func TestResolveBuildsSelectionContext(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	svc := env.selections("http://test.local", t)

	if _, err := env.photos.UploadBatch(context.Background(), event.ID, "guest@example.com", uploadFiles(t, 2), false); err != nil {
		t.Fatalf("upload: %v", err)
	}
	// Another guest's photos must not leak into the context.
	if _, err := env.photos.UploadBatch(context.Background(), event.ID, "other@example.com", uploadFiles(t, 1), false); err != nil {
		t.Fatalf("upload: %v", err)
	}

	token, err := svc.CreateToken(event.ID, "guest@example.com")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	selCtx, err := svc.Resolve(token.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if selCtx.Email != "guest@example.com" {
		t.Errorf("email = %q", selCtx.Email)
	}
	if len(selCtx.Photos) != 2 {
		t.Errorf("context holds %d photos, want the guest's 2", len(selCtx.Photos))
	}
	if selCtx.AllowedSelections != 3 {
		t.Errorf("allowed selections = %d, want free tier's 3", selCtx.AllowedSelections)
	}
	if !selCtx.Event.Watermark {
		t.Error("free tier context should flag watermarking")
	}
}

func TestResolveUniformInvalidSignal(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	svc := env.selections("http://test.local", t)

	// Unknown token.
	if _, err := svc.Resolve("no-such-token"); !errors.Is(err, models.ErrExpiredOrInvalid) {
		t.Errorf("unknown token err = %v, want ErrExpiredOrInvalid", err)
	}

	// Expired token.
	expired := &models.SelectionToken{
		EventID:    event.ID,
		GuestEmail: "guest@example.com",
		Token:      "tok-expired",
		ExpiresAt:  time.Now().Add(-time.Minute),
	}
	if err := env.selectionRepo.Create(expired); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Resolve("tok-expired"); !errors.Is(err, models.ErrExpiredOrInvalid) {
		t.Errorf("expired token err = %v, want ErrExpiredOrInvalid", err)
	}

	// Used token.
	used := &models.SelectionToken{
		EventID:    event.ID,
		GuestEmail: "guest@example.com",
		Token:      "tok-used",
		ExpiresAt:  time.Now().Add(time.Hour),
		Used:       true,
	}
	if err := env.selectionRepo.Create(used); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Resolve("tok-used"); !errors.Is(err, models.ErrExpiredOrInvalid) {
		t.Errorf("used token err = %v, want ErrExpiredOrInvalid", err)
	}
}

func TestSubmitDeliversAndConsumesToken(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	svc := env.selections("http://test.local", t)

	batch, err := env.photos.UploadBatch(context.Background(), event.ID, "guest@example.com", uploadFiles(t, 2), false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	token, err := svc.CreateToken(event.ID, "guest@example.com")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	production, err := svc.Submit(context.Background(), token.Token,
		[]models.Selection{{PhotoID: batch.Results[0].PhotoID}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(production.Attachments) != 1 {
		t.Errorf("production holds %d attachments, want 1", len(production.Attachments))
	}

	// The token is single-use: a second resolve or submit must fail with the
	// uniform signal.
	if _, err := svc.Resolve(token.Token); !errors.Is(err, models.ErrExpiredOrInvalid) {
		t.Errorf("resolve after submit err = %v, want ErrExpiredOrInvalid", err)
	}
	if _, err := svc.Submit(context.Background(), token.Token,
		[]models.Selection{{PhotoID: batch.Results[1].PhotoID}}); !errors.Is(err, models.ErrExpiredOrInvalid) {
		t.Errorf("second submit err = %v, want ErrExpiredOrInvalid", err)
	}
}

func TestSubmitEnforcesSelectionLimit(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free") // allows 3 selections
	svc := env.selections("http://test.local", t)

	batch, err := env.photos.UploadBatch(context.Background(), event.ID, "guest@example.com", uploadFiles(t, 4), false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	token, err := svc.CreateToken(event.ID, "guest@example.com")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	over := make([]models.Selection, 0, 4)
	for _, r := range batch.Results {
		over = append(over, models.Selection{PhotoID: r.PhotoID})
	}
	if _, err := svc.Submit(context.Background(), token.Token, over); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("over-limit submit err = %v, want ErrValidation", err)
	}
	if _, err := svc.Submit(context.Background(), token.Token, nil); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("empty submit err = %v, want ErrValidation", err)
	}

	// Failed submissions must not consume the token.
	if _, err := svc.Resolve(token.Token); err != nil {
		t.Errorf("token consumed by failed submit: %v", err)
	}
}

func TestSubmitRejectsAnotherGuestsPhoto(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	svc := env.selections("http://test.local", t)

	batch, err := env.photos.UploadBatch(context.Background(), event.ID, "victim@example.com", uploadFiles(t, 1), false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	victimPhotoID := batch.Results[0].PhotoID

	token, err := svc.CreateToken(event.ID, "attacker@example.com")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	// The token binds a guest; another guest's photo on the same event is
	// invisible through it.
	if _, err := svc.Submit(context.Background(), token.Token,
		[]models.Selection{{PhotoID: victimPhotoID}}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("cross-guest submit err = %v, want ErrNotFound", err)
	}

	// The victim's asset survives; the direct channel's eager cleanup never
	// ran because nothing was delivered.
	if _, err := env.photoRepo.GetByID(victimPhotoID); err != nil {
		t.Errorf("victim photo gone after rejected submit: %v", err)
	}
	if env.objects.count() == 0 {
		t.Error("victim photo bytes gone after rejected submit")
	}
	if env.mailer.deliveries != 0 {
		t.Errorf("deliveries = %d after rejected submit, want 0", env.mailer.deliveries)
	}
}

func TestSubmitFailedDeliveryKeepsTokenRedeemable(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, "free")
	svc := env.selections("http://test.local", t)

	token, err := svc.CreateToken(event.ID, "guest@example.com")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	// Selecting a photo that does not exist fails the delivery.
	if _, err := svc.Submit(context.Background(), token.Token,
		[]models.Selection{{PhotoID: "ghost"}}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("submit err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Resolve(token.Token); err != nil {
		t.Errorf("token should survive a failed delivery: %v", err)
	}
}
