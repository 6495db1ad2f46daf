package postgres

import (
	"context"
	"fmt"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// CheckRepo implements storage.CheckRepository using PostgreSQL.
type CheckRepo struct {
	db *DB
}

// NewCheckRepo creates a new PostgreSQL check repository.
func NewCheckRepo(db *DB) *CheckRepo {
	return &CheckRepo{db: db}
}

// Save appends one check record.
func (r *CheckRepo) Save(ctx context.Context, rec *domain.CheckRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO health_checks (id, user_addr, metric_id, tx_hash, status, created_at)
		VALUES (:id, :user_addr, :metric_id, :tx_hash, :status, :created_at)`,
		rec,
	)
	if err != nil {
		return fmt.Errorf("failed to save check record: %w", err)
	}
	return nil
}

// UpdateStatus sets the revealed status of a recorded check.
func (r *CheckRepo) UpdateStatus(ctx context.Context, id string, status domain.HealthStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE health_checks SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update check status: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (r *CheckRepo) Recent(ctx context.Context, limit int) ([]*domain.CheckRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*domain.CheckRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_addr, metric_id, tx_hash, status, created_at
		FROM health_checks
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query check records: %w", err)
	}
	return out, nil
}
