// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"todoview/internal/task"
)

// Format is a list output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s", s)
	}
}

// Numbered is a task with its 1-based position in the full list.
type Numbered struct {
	Num  int
	Task task.Task
}

// FormatTask formats a task line.
// Format: "{N:>4}  [ ] {TITLE}\n", with "[x]" for completed tasks. A
// non-empty description follows on its own line, indented under the title.
func FormatTask(w io.Writer, num int, t task.Task) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, box, normalizeTitle(t.Title))
	if desc := firstLine(t.Description); desc != "" {
		fmt.Fprintf(w, "          %s\n", desc)
	}
}

// WriteText writes one FormatTask block per task.
func WriteText(w io.Writer, items []Numbered) {
	for _, it := range items {
		FormatTask(w, it.Num, it.Task)
	}
}

// WriteJSON writes the tasks as an indented JSON array.
func WriteJSON(w io.Writer, items []Numbered) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plain(items))
}

// WriteYAML writes the tasks as a YAML sequence.
func WriteYAML(w io.Writer, items []Numbered) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(plain(items)); err != nil {
		return err
	}
	return enc.Close()
}

func plain(items []Numbered) []task.Task {
	out := make([]task.Task, len(items))
	for i, it := range items {
		out[i] = it.Task
	}
	return out
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i]) + " …"
	}
	return s
}
