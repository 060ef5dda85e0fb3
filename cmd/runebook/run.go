package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/runebook/runebook/internal/config"
	"github.com/runebook/runebook/internal/sandbox"
)

var (
	timeoutFlag     time.Duration
	interactiveFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a file (or stdin) through the execution sandbox",
	Long: `Run code through the same isolated sandbox the web app uses.

With a file argument the file's contents are submitted; with no argument and
--interactive an editor loop starts where a blank line submits the block.

Examples:
  runebook run fizzbuzz.js
  runebook run script.py --runtime python
  runebook run --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Wall-clock ceiling (overrides config)")
	runCmd.Flags().BoolVarP(&interactiveFlag, "interactive", "i", false, "Read blocks interactively")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sb, err := sandbox.New(cfg.SandboxConfig())
	if err != nil {
		return fmt.Errorf("configuring sandbox: %w", err)
	}

	if interactiveFlag {
		return runInteractive(sb)
	}

	var code []byte
	if len(args) == 1 {
		code, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
	} else {
		code, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	outcome := execute(sb, string(code))
	printOutcome(outcome)
	if !outcome.Success() {
		os.Exit(1)
	}
	return nil
}

func execute(sb *sandbox.ProcessSandbox, code string) *sandbox.Outcome {
	sub := sandbox.Submission{
		Code:    code,
		Runtime: runtimeFlag,
		Limits:  sandbox.Limits{Timeout: timeoutFlag},
	}
	// ProcessSandbox resolves every failure into the outcome.
	outcome, _ := sb.Execute(context.Background(), sub)
	return outcome
}

func printOutcome(o *sandbox.Outcome) {
	fmt.Print(o.Stdout)
	if o.Stderr != "" {
		fmt.Fprint(os.Stderr, o.Stderr)
	}
	if o.Truncated {
		fmt.Fprintln(os.Stderr, "... (output truncated)")
	}
	if o.Error != "" {
		fmt.Fprintln(os.Stderr, o.Error)
	}
}

func runInteractive(sb *sandbox.ProcessSandbox) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Runebook sandbox - blank line runs the block, /quit exits")

	var block []string
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			block = nil
			rl.SetPrompt(">>> ")
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "":
			if len(block) == 0 {
				continue
			}
			outcome := execute(sb, strings.Join(block, "\n"))
			printOutcome(outcome)
			fmt.Printf("[%s in %dms]\n", outcome.Status, outcome.Duration.Milliseconds())
			block = nil
			rl.SetPrompt(">>> ")
		default:
			block = append(block, line)
			rl.SetPrompt("... ")
		}
	}
}
