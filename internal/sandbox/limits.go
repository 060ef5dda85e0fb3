package sandbox

import "time"

// Default resource ceilings applied when a Submission or sandbox config
// leaves a limit unset.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultMemoryMB       = 64
	DefaultMaxOutputBytes = 1 << 20 // 1 MiB per stream
)

// Limits are the resource ceilings for one execution.
type Limits struct {
	// Timeout is the wall-clock ceiling. When it expires the process group
	// is killed with SIGKILL and the outcome is StatusTimeout.
	Timeout time.Duration `validate:"gte=0"`

	// MemoryMB bounds the process's memory. It is passed to the interpreter
	// via its runtime flag (when the profile has one) and enforced with
	// ulimit -v regardless.
	MemoryMB int `validate:"gte=0"`

	// MaxOutputBytes caps each captured stream. Output beyond the cap is
	// discarded and the outcome's Truncated flag is set.
	MaxOutputBytes int `validate:"gte=0"`
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{
		Timeout:        DefaultTimeout,
		MemoryMB:       DefaultMemoryMB,
		MaxOutputBytes: DefaultMaxOutputBytes,
	}
}

// merge fills zero fields in over from the receiver's values.
func (l Limits) merge(over Limits) Limits {
	if over.Timeout == 0 {
		over.Timeout = l.Timeout
	}
	if over.MemoryMB == 0 {
		over.MemoryMB = l.MemoryMB
	}
	if over.MaxOutputBytes == 0 {
		over.MaxOutputBytes = l.MaxOutputBytes
	}
	return over
}
