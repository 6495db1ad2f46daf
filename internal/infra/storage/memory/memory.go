package memory

import (
	"context"
	"sync"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// CheckRepo is the in-memory check repository used when no database is
// configured. Records do not survive a restart.
type CheckRepo struct {
	mu      sync.RWMutex
	records []*domain.CheckRecord
}

// NewCheckRepo creates an empty in-memory repository.
func NewCheckRepo() *CheckRepo {
	return &CheckRepo{}
}

// Save appends one check record.
func (r *CheckRepo) Save(ctx context.Context, rec *domain.CheckRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

// UpdateStatus sets the revealed status of a recorded check.
func (r *CheckRepo) UpdateStatus(ctx context.Context, id string, status domain.HealthStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Status = status
		}
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (r *CheckRepo) Recent(ctx context.Context, limit int) ([]*domain.CheckRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.CheckRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[i]
		out = append(out, &cp)
	}
	return out, nil
}
