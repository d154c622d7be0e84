package service

import (
	"errors"
	"testing"

	"github.com/boothpix/photobooth-backend/internal/models"
)

func TestCreateEventSnapshotsPlanCaps(t *testing.T) {
	env := newTestEnv(t)

	event := env.createEvent(t, "starter")
	if event.PhotoCap == nil || *event.PhotoCap != 100 {
		t.Errorf("photo cap = %v, want snapshotted 100", event.PhotoCap)
	}
	if event.AICredits != 5 {
		t.Errorf("ai credits = %d, want 5", event.AICredits)
	}
	if event.Status != models.EventStatusLive {
		t.Errorf("status = %q, want live", event.Status)
	}
	if event.URL == "" {
		t.Error("event created without a URL slug")
	}

	unknown := env.createEvent(t, "mystery-plan")
	if unknown.Plan != "free" {
		t.Errorf("unknown plan resolved to %q, want free", unknown.Plan)
	}
}

func TestCheckAdmission(t *testing.T) {
	env := newTestEnv(t)

	ended := env.createEvent(t, "free")
	ended.Status = models.EventStatusEnded
	if err := env.events.CheckAdmission(ended, 1, false, false); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("ended event err = %v, want ErrForbidden", err)
	}

	unpaid := env.createEvent(t, "free")
	unpaid.PaymentDue = true
	if err := env.events.CheckAdmission(unpaid, 1, false, false); !errors.Is(err, models.ErrPaymentRequired) {
		t.Errorf("unpaid event err = %v, want ErrPaymentRequired", err)
	}

	free := env.createEvent(t, "free")
	if err := env.events.CheckAdmission(free, 1, true, false); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("removal on free tier err = %v, want ErrForbidden", err)
	}
	if err := env.events.CheckAdmission(free, 1, false, true); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("AI on free tier err = %v, want ErrForbidden", err)
	}

	free.PhotoUsed = 24
	if err := env.events.CheckAdmission(free, 3, false, false); !errors.Is(err, models.ErrPaymentRequired) {
		t.Errorf("over-headroom batch err = %v, want ErrPaymentRequired", err)
	}
	if err := env.events.CheckAdmission(free, 1, false, false); err != nil {
		t.Errorf("batch into last slot err = %v, want nil", err)
	}

	starter := env.createEvent(t, "starter")
	starter.AIUsed = starter.AICredits
	if err := env.events.CheckAdmission(starter, 1, false, true); !errors.Is(err, models.ErrPaymentRequired) {
		t.Errorf("exhausted AI credits err = %v, want ErrPaymentRequired", err)
	}

	studio := env.createEvent(t, "studio")
	if err := env.events.CheckAdmission(studio, 100000, true, true); err != nil {
		t.Errorf("unlimited plan admission err = %v, want nil", err)
	}
}
