package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"todoview/internal/store"
)

type palette struct {
	fg         lipgloss.Color
	muted      lipgloss.Color
	accent     lipgloss.Color
	danger     lipgloss.Color
	border     lipgloss.Color
	selectedBg lipgloss.Color
}

var palettes = map[store.Theme]palette{
	store.ThemeLight: {
		fg:         lipgloss.Color("235"),
		muted:      lipgloss.Color("243"),
		accent:     lipgloss.Color("27"),
		danger:     lipgloss.Color("160"),
		border:     lipgloss.Color("250"),
		selectedBg: lipgloss.Color("#e9e9e9"),
	},
	store.ThemeDark: {
		fg:         lipgloss.Color("252"),
		muted:      lipgloss.Color("245"),
		accent:     lipgloss.Color("111"),
		danger:     lipgloss.Color("203"),
		border:     lipgloss.Color("240"),
		selectedBg: lipgloss.Color("#262626"),
	},
}

type styles struct {
	theme store.Theme

	title    lipgloss.Style
	subtitle lipgloss.Style
	toggle   lipgloss.Style
	errText  lipgloss.Style
	status   lipgloss.Style
	empty    lipgloss.Style

	item     lipgloss.Style
	selected lipgloss.Style
	done     lipgloss.Style
	desc     lipgloss.Style

	form       lipgloss.Style
	formActive lipgloss.Style
	button     lipgloss.Style
	cancel     lipgloss.Style
}

func newStyles(t store.Theme) styles {
	p, ok := palettes[t]
	if !ok {
		t = store.ThemeLight
		p = palettes[t]
	}
	return styles{
		theme:    t,
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		subtitle: lipgloss.NewStyle().Foreground(p.muted),
		toggle:   lipgloss.NewStyle().Foreground(p.fg).Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		errText:  lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		status:   lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		empty:    lipgloss.NewStyle().Foreground(p.muted).Padding(1, 2),

		item:     lipgloss.NewStyle().Foreground(p.fg).PaddingLeft(2),
		selected: lipgloss.NewStyle().Foreground(p.fg).Background(p.selectedBg).Bold(true).PaddingLeft(2),
		done:     lipgloss.NewStyle().Foreground(p.muted).Strikethrough(true),
		desc:     lipgloss.NewStyle().Foreground(p.muted).PaddingLeft(8),

		form:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		formActive: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.accent).Padding(0, 1),
		button:     lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		cancel:     lipgloss.NewStyle().Foreground(p.muted),
	}
}

// toggleLabel names the theme the toggle switches to.
func toggleLabel(t store.Theme) string {
	if t == store.ThemeDark {
		return "☀️ Light"
	}
	return "🌙 Dark"
}

// ResolveTheme maps a configured theme name to a store theme. "auto" asks
// the terminal for its background colour.
func ResolveTheme(name string) store.Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		return store.ThemeDark
	case "auto":
		if termenv.HasDarkBackground() {
			return store.ThemeDark
		}
		return store.ThemeLight
	default:
		return store.ThemeLight
	}
}

// applyColorProfile honours NO_COLOR and otherwise follows the terminal.
func applyColorProfile() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}
