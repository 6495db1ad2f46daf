package domain

import "time"

// DecryptionSignature is the capability artifact issued by the FHE
// platform that authorizes one user to decrypt handles associated with
// one contract. It is valid from StartTimestamp for DurationDays.
type DecryptionSignature struct {
	PublicKey      string `json:"public_key"`
	PrivateKey     string `json:"private_key"`
	Signature      string `json:"signature"`
	User           string `json:"user"`
	Contract       string `json:"contract"`
	StartTimestamp int64  `json:"start_timestamp"`
	DurationDays   int64  `json:"duration_days"`
}

// ValidAt reports whether the signature covers the given instant.
// A small margin keeps a signature from expiring mid-decrypt.
func (s *DecryptionSignature) ValidAt(t time.Time, margin time.Duration) bool {
	if s == nil || s.Signature == "" {
		return false
	}
	start := time.Unix(s.StartTimestamp, 0)
	end := start.Add(time.Duration(s.DurationDays) * 24 * time.Hour)
	return !t.Before(start) && t.Add(margin).Before(end)
}
