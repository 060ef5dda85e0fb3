package sandbox

import (
	"fmt"
	"time"
)

// termination gathers the raw facts about how one execution ended.
type termination struct {
	TimedOut bool  // the sandbox's own timeout fired
	SpawnErr error // the OS could not create the process

	ExitCode int    // -1 when the process never ran or was signaled
	Signal   string // termination signal name, empty if none

	Elapsed time.Duration
	Limit   time.Duration // configured wall-clock ceiling, for the message

	Stdout    string
	Stderr    string
	Truncated bool
}

// classify maps termination facts to exactly one Outcome.
//
// Precedence: a fired timeout wins over whatever exit code the killed
// process reports; a spawn failure wins over everything else since there was
// never a process to report anything.
func classify(t termination) *Outcome {
	o := &Outcome{
		ExitCode:  t.ExitCode,
		Signal:    t.Signal,
		Stdout:    t.Stdout,
		Stderr:    t.Stderr,
		Truncated: t.Truncated,
		Duration:  t.Elapsed,
	}

	switch {
	case t.TimedOut:
		o.Status = StatusTimeout
		o.Error = fmt.Sprintf("Execution timed out (%dms limit)", t.Limit.Milliseconds())
	case t.SpawnErr != nil:
		o.Status = StatusSpawnError
		o.Error = fmt.Sprintf("failed to start interpreter: %v", t.SpawnErr)
		o.ExitCode = -1
		o.Stdout = ""
		o.Stderr = ""
		o.Truncated = false
	case t.ExitCode == 0:
		o.Status = StatusSuccess
	default:
		o.Status = StatusFailure
	}
	return o
}
