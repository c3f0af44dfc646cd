package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"todoview/internal/store"
)

var (
	mdMu sync.Mutex
	// Renderers keyed by theme and wrap width.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders a description in the given theme. On any error the
// plain text is returned.
func renderMarkdown(md string, theme store.Theme, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	key := string(theme) + ":" + strconv.Itoa(width)
	mdMu.Lock()
	defer mdMu.Unlock()

	r := mdRenderers[key]
	if r == nil {
		var err error
		// A fixed style avoids terminal background queries.
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(string(theme)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = r
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// truncate cuts s to width cells, ANSI-aware, with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// firstLine returns the first line of s.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i]) + " …"
	}
	return s
}
