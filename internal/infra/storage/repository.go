package storage

import (
	"context"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// CheckRepository persists the audit trail of performed checks.
type CheckRepository interface {
	// Save appends one check record.
	Save(ctx context.Context, rec *domain.CheckRecord) error
	// UpdateStatus sets the revealed status of a recorded check.
	UpdateStatus(ctx context.Context, id string, status domain.HealthStatus) error
	// Recent returns the newest records, most recent first.
	Recent(ctx context.Context, limit int) ([]*domain.CheckRecord, error)
}
