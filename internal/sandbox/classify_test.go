package sandbox

import (
	"errors"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		in         termination
		wantStatus Status
		wantError  string
	}{
		{
			name:       "clean exit",
			in:         termination{ExitCode: 0, Stdout: "hi\n"},
			wantStatus: StatusSuccess,
		},
		{
			name:       "nonzero exit",
			in:         termination{ExitCode: 1, Stderr: "boom"},
			wantStatus: StatusFailure,
		},
		{
			name:       "killed by foreign signal",
			in:         termination{ExitCode: -1, Signal: "killed"},
			wantStatus: StatusFailure,
		},
		{
			name:       "timeout wins over clean exit code",
			in:         termination{TimedOut: true, ExitCode: 0, Limit: 10 * time.Second},
			wantStatus: StatusTimeout,
			wantError:  "Execution timed out (10000ms limit)",
		},
		{
			name:       "timeout wins over signal",
			in:         termination{TimedOut: true, ExitCode: -1, Signal: "killed", Limit: 250 * time.Millisecond},
			wantStatus: StatusTimeout,
			wantError:  "Execution timed out (250ms limit)",
		},
		{
			name:       "spawn failure",
			in:         termination{SpawnErr: errors.New("no such file"), ExitCode: -1},
			wantStatus: StatusSpawnError,
			wantError:  "failed to start interpreter: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := classify(tt.in)
			if o.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", o.Status, tt.wantStatus)
			}
			if o.Error != tt.wantError {
				t.Errorf("error = %q, want %q", o.Error, tt.wantError)
			}
			if o.Success() != (tt.wantStatus == StatusSuccess) {
				t.Errorf("Success() = %v for status %q", o.Success(), o.Status)
			}
		})
	}
}

func TestClassifySpawnErrorDropsOutput(t *testing.T) {
	o := classify(termination{
		SpawnErr:  errors.New("permission denied"),
		Stdout:    "should not survive",
		Stderr:    "nor this",
		Truncated: true,
	})

	if o.Stdout != "" || o.Stderr != "" {
		t.Errorf("output = (%q, %q), want empty", o.Stdout, o.Stderr)
	}
	if o.Truncated {
		t.Error("truncated should be cleared on spawn failure")
	}
	if o.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", o.ExitCode)
	}
}

func TestClassifyKeepsCapturedStreams(t *testing.T) {
	o := classify(termination{ExitCode: 2, Stdout: "partial", Stderr: "trace", Truncated: true})

	if o.Stdout != "partial" || o.Stderr != "trace" {
		t.Errorf("output = (%q, %q)", o.Stdout, o.Stderr)
	}
	if !o.Truncated {
		t.Error("truncated flag lost")
	}
}
