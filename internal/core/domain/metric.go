package domain

// MetricID is the small integer code identifying a health metric type.
// The on-chain contract and the relayer both key computation by this code.
type MetricID uint8

// MetricDefinition describes one health metric: display metadata plus the
// accepted input range. Definitions are immutable after process start.
type MetricDefinition struct {
	ID          MetricID
	Name        string
	Description string
	Unit        string
	Min         uint32
	Max         uint32
	Placeholder uint32
}

// HealthStatus is the classification of a revealed check result.
type HealthStatus string

const (
	StatusUnknown HealthStatus = "unknown"
	StatusNormal  HealthStatus = "normal"
	StatusLow     HealthStatus = "low"
	StatusHigh    HealthStatus = "high"
)

// ClassifyCode maps a decrypted result code to a status.
// 0 is normal, 1 is low, every other code is high.
func ClassifyCode(code uint64) HealthStatus {
	switch code {
	case 0:
		return StatusNormal
	case 1:
		return StatusLow
	default:
		return StatusHigh
	}
}
