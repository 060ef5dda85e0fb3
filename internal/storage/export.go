package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportMarkdown renders a progress report as a markdown document.
func ExportMarkdown(progress []Progress) string {
	var b strings.Builder

	b.WriteString("# Lesson Progress\n\n")

	completed := 0
	for _, p := range progress {
		if p.Status == ProgressCompleted {
			completed++
		}
	}
	b.WriteString(fmt.Sprintf("- **Lessons touched:** %d\n", len(progress)))
	b.WriteString(fmt.Sprintf("- **Completed:** %d\n", completed))
	b.WriteString("\n---\n\n")

	for _, p := range progress {
		b.WriteString(fmt.Sprintf("## %s\n\n", p.LessonSlug))
		b.WriteString(fmt.Sprintf("- **Status:** %s\n", p.Status))
		b.WriteString(fmt.Sprintf("- **Last run succeeded:** %v\n", p.LastRunOK))
		b.WriteString(fmt.Sprintf("- **Updated:** %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05")))
		if p.LastCode != "" {
			b.WriteString(fmt.Sprintf("\n```\n%s\n```\n", strings.TrimRight(p.LastCode, "\n")))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ExportJSON renders a progress report as formatted JSON.
func ExportJSON(progress []Progress) ([]byte, error) {
	export := struct {
		Progress []Progress `json:"progress"`
	}{Progress: progress}
	return json.MarshalIndent(export, "", "  ")
}
