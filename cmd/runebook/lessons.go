package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runebook/runebook/internal/config"
	"github.com/runebook/runebook/internal/lessons"
)

var lessonsCmd = &cobra.Command{
	Use:     "lessons",
	Aliases: []string{"lesson", "l"},
	Short:   "Browse the lesson catalog",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lessons in order",
	RunE:  runLessonsList,
}

var lessonsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a lesson's content and starter code",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsShow,
}

func init() {
	lessonsCmd.AddCommand(lessonsListCmd)
	lessonsCmd.AddCommand(lessonsShowCmd)
	rootCmd.AddCommand(lessonsCmd)
}

func loadCatalog() (*lessons.Catalog, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	catalog, err := lessons.Load(cfg.Lessons.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading lessons: %w", err)
	}
	return catalog, nil
}

func runLessonsList(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	if catalog.Len() == 0 {
		fmt.Println("No lessons found.")
		return nil
	}

	fmt.Printf("%-4s %-24s %-8s %s\n", "#", "SLUG", "RUNTIME", "TITLE")
	for _, l := range catalog.All() {
		fmt.Printf("%-4d %-24s %-8s %s\n", l.Order, l.Slug, l.Runtime, l.Title)
	}
	return nil
}

func runLessonsShow(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	lesson, ok := catalog.Get(args[0])
	if !ok {
		return fmt.Errorf("lesson not found: %s", args[0])
	}

	fmt.Printf("# %s (%s)\n\n", lesson.Title, lesson.Slug)
	fmt.Println(lesson.Body)
	if lesson.StarterCode != "" {
		fmt.Printf("--- starter code ---\n%s", lesson.StarterCode)
	}
	return nil
}
