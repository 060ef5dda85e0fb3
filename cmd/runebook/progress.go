package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runebook/runebook/internal/config"
	"github.com/runebook/runebook/internal/storage"
	"github.com/runebook/runebook/internal/storage/sqlite"
)

var (
	exportFormat string
	exportOutput string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show lesson progress",
	RunE:  runProgressList,
}

var progressExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export progress as markdown or JSON",
	RunE:  runProgressExport,
}

func init() {
	progressExportCmd.Flags().StringVar(&exportFormat, "format", "markdown", "Export format: markdown or json")
	progressExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	progressCmd.AddCommand(progressExportCmd)
	rootCmd.AddCommand(progressCmd)
}

func loadProgress() ([]storage.Progress, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	return store.ListProgress(context.Background())
}

func runProgressList(cmd *cobra.Command, args []string) error {
	progress, err := loadProgress()
	if err != nil {
		return err
	}

	if len(progress) == 0 {
		fmt.Println("No progress yet. Run some lessons!")
		return nil
	}

	fmt.Printf("%-24s %-10s %-8s %s\n", "LESSON", "STATUS", "LAST RUN", "UPDATED")
	for _, p := range progress {
		lastRun := "failed"
		if p.LastRunOK {
			lastRun = "ok"
		}
		fmt.Printf("%-24s %-10s %-8s %s\n", p.LessonSlug, p.Status, lastRun, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runProgressExport(cmd *cobra.Command, args []string) error {
	progress, err := loadProgress()
	if err != nil {
		return err
	}

	var data []byte
	switch exportFormat {
	case "markdown", "md":
		data = []byte(storage.ExportMarkdown(progress))
	case "json":
		data, err = storage.ExportJSON(progress)
		if err != nil {
			return fmt.Errorf("encoding progress: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want markdown or json)", exportFormat)
	}

	if exportOutput == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	fmt.Printf("Exported to %s\n", exportOutput)
	return nil
}
