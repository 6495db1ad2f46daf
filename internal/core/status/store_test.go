package status

import (
	"sync"
	"testing"

	"github.com/dtrann/healthseal/internal/core/domain"
)

func TestGet_InitialState(t *testing.T) {
	s := NewStore()
	slot := s.Get(3)
	if slot.Status != domain.StatusUnknown {
		t.Errorf("expected unknown, got %s", slot.Status)
	}
	if slot.Checked {
		t.Error("fresh slot must not be checked")
	}
}

func TestMarkChecked_KeepsStatusUnknown(t *testing.T) {
	s := NewStore()
	s.MarkChecked(1, "0xabc")

	slot := s.Get(1)
	if !slot.Checked {
		t.Error("slot should be checked")
	}
	if slot.Status != domain.StatusUnknown {
		t.Errorf("status must stay unknown until reveal, got %s", slot.Status)
	}
	if slot.LastTx != "0xabc" {
		t.Errorf("tx hash not recorded: %q", slot.LastTx)
	}
}

func TestSetStatus_PreservesChecked(t *testing.T) {
	s := NewStore()
	s.MarkChecked(2, "0xdef")
	s.SetStatus(2, domain.StatusHigh)

	slot := s.Get(2)
	if slot.Status != domain.StatusHigh {
		t.Errorf("expected high, got %s", slot.Status)
	}
	if !slot.Checked || slot.LastTx != "0xdef" {
		t.Error("SetStatus must not drop checked flag or tx")
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	s := NewStore()
	s.MarkChecked(0, "0x1")
	s.SetStatus(0, domain.StatusLow)
	s.Reset(0)

	slot := s.Get(0)
	if slot.Status != domain.StatusUnknown || slot.Checked || slot.LastTx != "" {
		t.Errorf("reset slot not initial: %+v", slot)
	}
}

func TestSlots_AreIndependent(t *testing.T) {
	s := NewStore()
	s.MarkChecked(0, "0x1")
	s.SetStatus(0, domain.StatusNormal)

	if got := s.Get(1).Status; got != domain.StatusUnknown {
		t.Errorf("metric 1 affected by metric 0: %s", got)
	}
}

func TestSnapshot_Copies(t *testing.T) {
	s := NewStore()
	s.MarkChecked(4, "0x9")
	snap := s.Snapshot()
	snap[4] = domain.MetricSlot{Status: domain.StatusHigh}
	if s.Get(4).Status != domain.StatusUnknown {
		t.Error("mutating snapshot leaked into store")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		id := domain.MetricID(i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.MarkChecked(id, "0x1")
				s.SetStatus(id, domain.StatusNormal)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Get(id)
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
}
