package assistant

import (
	"time"
	"unicode/utf8"
)

// Policy controls how long a turn takes to resolve.
type Policy struct {
	// ThinkTime elapses between submission and the remote request.
	ThinkTime time.Duration
	// PerCharDelay is multiplied by the reply length in characters.
	PerCharDelay time.Duration
	// MinDisplayDelay and MaxDisplayDelay clamp the per-character delay.
	MinDisplayDelay time.Duration
	MaxDisplayDelay time.Duration
	// FailureDelay elapses before the failure message after a remote error.
	FailureDelay time.Duration
}

// DefaultPolicy is 1s of think time, 15ms per character clamped to
// [1.5s, 3s], and 1.5s before a failure message.
func DefaultPolicy() Policy {
	return Policy{
		ThinkTime:       1000 * time.Millisecond,
		PerCharDelay:    15 * time.Millisecond,
		MinDisplayDelay: 1500 * time.Millisecond,
		MaxDisplayDelay: 3000 * time.Millisecond,
		FailureDelay:    1500 * time.Millisecond,
	}
}

// DisplayDelay returns the typing delay for reply.
func (p Policy) DisplayDelay(reply string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(reply)) * p.PerCharDelay
	return min(max(d, p.MinDisplayDelay), p.MaxDisplayDelay)
}
