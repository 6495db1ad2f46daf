package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dtrann/healthseal/internal/core/domain"
)

func TestCheckRepo_SaveAndRecent(t *testing.T) {
	r := NewCheckRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &domain.CheckRecord{
			ID:        string(rune('a' + i)),
			User:      "0xacc0",
			MetricID:  domain.MetricID(i),
			TxHash:    "0x1",
			Status:    domain.StatusUnknown,
			CreatedAt: time.Now(),
		}
		if err := r.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := r.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2, got %d", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("not newest-first: %s %s", recent[0].ID, recent[1].ID)
	}
}

func TestCheckRepo_UpdateStatus(t *testing.T) {
	r := NewCheckRepo()
	ctx := context.Background()

	_ = r.Save(ctx, &domain.CheckRecord{ID: "x", Status: domain.StatusUnknown})
	if err := r.UpdateStatus(ctx, "x", domain.StatusHigh); err != nil {
		t.Fatal(err)
	}

	recent, _ := r.Recent(ctx, 1)
	if recent[0].Status != domain.StatusHigh {
		t.Errorf("status not updated: %s", recent[0].Status)
	}
}

func TestCheckRepo_SaveCopies(t *testing.T) {
	r := NewCheckRepo()
	ctx := context.Background()

	rec := &domain.CheckRecord{ID: "y", Status: domain.StatusUnknown}
	_ = r.Save(ctx, rec)
	rec.Status = domain.StatusLow // caller mutation must not leak

	recent, _ := r.Recent(ctx, 1)
	if recent[0].Status != domain.StatusUnknown {
		t.Error("repository shares memory with caller")
	}
}
