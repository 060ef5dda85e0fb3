package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// sandboxPath is the search path inside the sandbox. Interpreter lookup uses
// the same directories, so a binary the launcher cannot resolve is also one
// the child could never exec.
const sandboxPath = "/usr/local/bin:/usr/bin:/bin"

// Config configures a ProcessSandbox.
type Config struct {
	// Limits are the default ceilings; zero fields fall back to the stock
	// defaults.
	Limits Limits

	// DefaultRuntime names the profile used when a Submission does not pick
	// one. Empty = "node".
	DefaultRuntime string

	// Runtimes adds interpreter profiles on top of the built-ins. A profile
	// with a built-in's name replaces it.
	Runtimes []Runtime
}

// ProcessSandbox executes submissions as isolated OS processes.
//
// Isolation per execution:
//   - the source text arrives on the interpreter's stdin, never on a
//     command line, so shell injection is structurally impossible
//   - the environment is built from scratch — nothing is inherited
//   - HOME and the working directory are a throwaway temp dir
//   - the process runs in its own group; timeout kills the whole group
//   - memory is bounded by the interpreter's own flag where the profile has
//     one, and by ulimit -v in every case
//   - each captured stream is capped at a fixed byte count
type ProcessSandbox struct {
	limits         Limits
	defaultRuntime string
	runtimes       map[string]Runtime
}

// New creates a ProcessSandbox, validating the effective configuration.
func New(cfg Config) (*ProcessSandbox, error) {
	limits := DefaultLimits().merge(cfg.Limits)
	if err := validate.Struct(limits); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	runtimes := make(map[string]Runtime, len(builtinRuntimes)+len(cfg.Runtimes))
	for name, rt := range builtinRuntimes {
		runtimes[name] = rt
	}
	for _, rt := range cfg.Runtimes {
		if err := validate.Struct(rt); err != nil {
			return nil, fmt.Errorf("invalid runtime %q: %w", rt.Name, err)
		}
		runtimes[rt.Name] = rt
	}

	def := cfg.DefaultRuntime
	if def == "" {
		def = "node"
	}
	if _, ok := runtimes[def]; !ok {
		return nil, fmt.Errorf("default runtime %q is not defined", def)
	}

	return &ProcessSandbox{
		limits:         limits,
		defaultRuntime: def,
		runtimes:       runtimes,
	}, nil
}

// Execute runs one submission to a terminal outcome. The returned error is
// always nil: every way the child can fail is folded into the Outcome.
func (s *ProcessSandbox) Execute(ctx context.Context, sub Submission) (*Outcome, error) {
	start := time.Now()
	limits := s.limits.merge(sub.Limits)

	name := sub.Runtime
	if name == "" {
		name = s.defaultRuntime
	}
	rt, ok := s.runtimes[name]
	if !ok {
		return classify(termination{
			SpawnErr: fmt.Errorf("unknown runtime %q", name),
			ExitCode: -1,
			Elapsed:  time.Since(start),
			Limit:    limits.Timeout,
		}), nil
	}

	// Resolve the interpreter up front. The shell wrapper below always
	// starts, so a missing binary would otherwise surface only as the
	// shell's exit 127 and be misread as a failure of the submitted code.
	binary, err := resolveBinary(rt.Binary)
	if err != nil {
		return classify(termination{
			SpawnErr: err,
			ExitCode: -1,
			Elapsed:  time.Since(start),
			Limit:    limits.Timeout,
		}), nil
	}

	tmpDir, err := os.MkdirTemp("", "runebook-sandbox-*")
	if err != nil {
		return classify(termination{
			SpawnErr: err,
			ExitCode: -1,
			Elapsed:  time.Since(start),
			Limit:    limits.Timeout,
		}), nil
	}
	defer os.RemoveAll(tmpDir)

	// ulimit wrapper: exec "$@" with positional parameters keeps both the
	// interpreter argv and the submission itself out of the shell string.
	script := fmt.Sprintf("ulimit -v %d 2>/dev/null; exec \"$@\"", limits.MemoryMB*1024)
	argv := append([]string{"-c", script, "_", binary}, rt.argv(limits.MemoryMB)...)

	cmd := exec.Command("/bin/sh", argv...)
	cmd.Dir = tmpDir
	cmd.Env = sandboxEnv(tmpDir)
	cmd.Stdin = strings.NewReader(sub.Code)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout := newCappedBuffer(limits.MaxOutputBytes, StreamStdout, sub.Observer)
	stderr := newCappedBuffer(limits.MaxOutputBytes, StreamStderr, sub.Observer)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return classify(termination{
			SpawnErr: err,
			ExitCode: -1,
			Elapsed:  time.Since(start),
			Limit:    limits.Timeout,
		}), nil
	}

	// One-shot transition guard: whichever of {timeout, natural exit} claims
	// the terminal state first wins. A timer that loses the race never
	// kills, and a timeout that fired keeps precedence over the exit code
	// the killed process reports afterward.
	var term atomic.Int32
	kill := func() {
		// Negative PID kills the whole process group, so interpreter
		// children die with it. ESRCH just means it already exited.
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	timer := time.AfterFunc(limits.Timeout, func() {
		if term.CompareAndSwap(termRunning, termTimedOut) {
			kill()
		}
	})
	stopCancel := context.AfterFunc(ctx, kill)

	waitErr := cmd.Wait()
	term.CompareAndSwap(termRunning, termExited)
	timer.Stop()
	stopCancel()
	elapsed := time.Since(start)

	exitCode, signal := terminationFacts(cmd, waitErr)

	return classify(termination{
		TimedOut:  term.Load() == termTimedOut,
		ExitCode:  exitCode,
		Signal:    signal,
		Elapsed:   elapsed,
		Limit:     limits.Timeout,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}), nil
}

// Terminal states claimed by exactly one of the exit and timeout paths.
const (
	termRunning int32 = iota
	termExited
	termTimedOut
)

// resolveBinary locates an interpreter binary the way the sandboxed shell
// would: paths are checked directly, bare names are searched on sandboxPath.
func resolveBinary(binary string) (string, error) {
	if strings.Contains(binary, "/") {
		if err := checkExecutable(binary); err != nil {
			return "", err
		}
		return binary, nil
	}
	for _, dir := range strings.Split(sandboxPath, ":") {
		path := filepath.Join(dir, binary)
		if checkExecutable(path) == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: executable file not found in sandbox PATH", binary)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s: not an executable file", path)
	}
	return nil
}

// terminationFacts extracts the exit code and termination signal from a
// finished command. ExitCode is -1 when the process was signaled.
func terminationFacts(cmd *exec.Cmd, waitErr error) (int, string) {
	state := cmd.ProcessState
	if state == nil {
		// Wait failed before the process was reaped; report it like an
		// abnormal termination.
		if waitErr != nil {
			return -1, ""
		}
		return 0, ""
	}

	exitCode := state.ExitCode()
	signal := ""
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		signal = ws.Signal().String()
	}
	return exitCode, signal
}

// sandboxEnv builds the minimal environment for a child. Nothing is
// inherited from the host process, so interpreter search-path variables
// (NODE_PATH, PYTHONPATH, ...) are absent rather than scrubbed.
func sandboxEnv(home string) []string {
	return []string{
		"PATH=" + sandboxPath,
		"HOME=" + home,
		"TMPDIR=" + home,
		"LANG=en_US.UTF-8",
		"TERM=dumb",
	}
}
