// Package sandbox runs untrusted code submissions as isolated, time- and
// memory-bounded interpreter processes and classifies how they ended.
package sandbox

import (
	"context"
	"time"
)

// Status is the terminal classification of one execution.
type Status string

const (
	// StatusSuccess: the process exited with code zero.
	StatusSuccess Status = "success"
	// StatusFailure: the process exited nonzero or was killed by a signal
	// other than the sandbox's own timeout kill (e.g. the kernel OOM killer).
	StatusFailure Status = "failure"
	// StatusTimeout: the wall-clock ceiling expired and the sandbox killed
	// the process. Takes precedence over any exit code reported afterward.
	StatusTimeout Status = "timeout"
	// StatusSpawnError: the OS could not create the process at all.
	StatusSpawnError Status = "spawn_error"
)

// Stream identifies one of the two captured output channels.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Observer receives output chunks as they arrive from a running process.
// Chunk may be called concurrently for the two streams; implementations
// must be safe for that. The slice is only valid for the duration of the call.
type Observer interface {
	Chunk(stream Stream, p []byte)
}

// Submission is one code execution request.
type Submission struct {
	// Code is the submitted source text. It is delivered to the interpreter
	// over stdin, never interpolated into a command line. An empty string is
	// valid and simply runs an empty program.
	Code string

	// Runtime names the interpreter profile to use. Empty = sandbox default.
	Runtime string

	// Limits overrides resource ceilings. Zero values = sandbox defaults.
	Limits Limits

	// Observer, if non-nil, is notified of output chunks as they arrive.
	Observer Observer
}

// Outcome is the terminal record of one execution. Exactly one Outcome is
// produced per Submission, no matter how the process ended.
type Outcome struct {
	Status   Status        `json:"status"`
	ExitCode int           `json:"exit_code"` // -1 when the process never ran or was signaled
	Signal   string        `json:"signal,omitempty"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	// Truncated is set when either stream hit the output byte cap and the
	// excess was discarded.
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"duration"`
	// Error is a human-readable message, set only for StatusTimeout and
	// StatusSpawnError. Runtime failures leave it empty — their diagnostic
	// detail lives in Stderr.
	Error string `json:"error,omitempty"`
}

// Success reports whether the execution was classified StatusSuccess.
func (o *Outcome) Success() bool {
	return o.Status == StatusSuccess
}

// Executor runs one submission to completion.
//
// Every failure of the submitted program (nonzero exit, signal, timeout,
// failure to even start) is resolved into the Outcome, never returned as an
// error. The error return is reserved for the caller-side path: a dispatcher
// refusing or abandoning admission (e.g. context cancelled while waiting for
// a worker slot).
type Executor interface {
	Execute(ctx context.Context, sub Submission) (*Outcome, error)
}
