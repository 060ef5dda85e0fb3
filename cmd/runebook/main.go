package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runtimeFlag string

var rootCmd = &cobra.Command{
	Use:   "runebook",
	Short: "Runebook - Interactive coding lessons",
	Long: `Runebook serves a catalog of markdown lessons through a small web app
and runs submitted code in an isolated, time- and memory-bounded sandbox.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&runtimeFlag, "runtime", "", "Interpreter runtime (node, python)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
