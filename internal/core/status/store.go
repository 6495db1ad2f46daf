package status

import (
	"sync"
	"time"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// Store keeps the per-metric workflow slots. Each metric's slot is
// independent; the controller is the single writer per key, concurrent
// readers come from the presentation layer.
type Store struct {
	mu    sync.RWMutex
	slots map[domain.MetricID]domain.MetricSlot
}

// NewStore creates an empty slot store.
func NewStore() *Store {
	return &Store{slots: make(map[domain.MetricID]domain.MetricSlot)}
}

// Get returns the slot for a metric. A metric never written is in the
// initial state: unknown status, not checked.
func (s *Store) Get(id domain.MetricID) domain.MetricSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[id]
	if !ok {
		return domain.MetricSlot{Status: domain.StatusUnknown}
	}
	return slot
}

// Reset puts the slot back to the initial state (unknown, unchecked).
func (s *Store) Reset(id domain.MetricID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[id] = domain.MetricSlot{
		Status:    domain.StatusUnknown,
		UpdatedAt: time.Now(),
	}
}

// MarkChecked records a confirmed check transaction. The displayed
// status stays unknown until a successful reveal.
func (s *Store) MarkChecked(id domain.MetricID, txHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[id] = domain.MetricSlot{
		Status:    domain.StatusUnknown,
		Checked:   true,
		LastTx:    txHash,
		UpdatedAt: time.Now(),
	}
}

// SetStatus records a revealed classification. It keeps the checked
// flag and transaction reference of the slot.
func (s *Store) SetStatus(id domain.MetricID, st domain.HealthStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[id]
	slot.Status = st
	slot.UpdatedAt = time.Now()
	s.slots[id] = slot
}

// Snapshot returns a copy of every written slot.
func (s *Store) Snapshot() map[domain.MetricID]domain.MetricSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.MetricID]domain.MetricSlot, len(s.slots))
	for id, slot := range s.slots {
		out[id] = slot
	}
	return out
}
