package domain

import "time"

// Handle is an opaque reference to a ciphertext held by the FHE platform.
// The application never sees plaintext or ciphertext bytes, only handles.
type Handle [32]byte

// IsZero reports whether the handle is the zero value, meaning the
// contract has no result stored for the queried metric yet.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// EncryptedInput is the relayer's answer to an encrypt request: the
// ciphertext handle plus the input proof the contract verifies.
type EncryptedInput struct {
	Handle Handle
	Proof  []byte
}

// MetricSlot is the per-metric workflow state. Each metric owns exactly
// one slot; a slot has a single writer (the workflow controller).
type MetricSlot struct {
	Status    HealthStatus `json:"status"`
	Checked   bool         `json:"checked"`
	LastTx    string       `json:"last_tx,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CheckRecord is one row of the check audit trail.
type CheckRecord struct {
	ID        string       `db:"id"         json:"id"`
	User      string       `db:"user_addr"  json:"user"`
	MetricID  MetricID     `db:"metric_id"  json:"metric_id"`
	TxHash    string       `db:"tx_hash"    json:"tx_hash"`
	Status    HealthStatus `db:"status"     json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
