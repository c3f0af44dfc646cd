package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todoview/internal/task"
)

const (
	titlePlaceholder = "Add a new task..."
	descPlaceholder  = "Optional description"
	msgTitleRequired = "Please enter a task title."

	defaultFormWidth = 60
)

type formField int

const (
	fieldTitle formField = iota
	fieldDesc
)

// form is a title input over a description textarea. The add form and the
// inline editor share it.
type form struct {
	title textinput.Model
	desc  textarea.Model

	field   formField
	focused bool
	err     string

	submitLabel string
	cancelable  bool
}

func newForm(submitLabel string, cancelable bool) form {
	ti := textinput.New()
	ti.Placeholder = titlePlaceholder
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = defaultFormWidth
	ti.Cursor.SetMode(cursor.CursorStatic)

	ta := textarea.New()
	ta.Placeholder = descPlaceholder
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.SetWidth(defaultFormWidth)
	ta.FocusedStyle.CursorLine = ta.BlurredStyle.CursorLine
	ta.Cursor.SetMode(cursor.CursorStatic)

	return form{
		title:       ti,
		desc:        ta,
		submitLabel: submitLabel,
		cancelable:  cancelable,
	}
}

// SetWidth resizes both fields.
func (f *form) SetWidth(w int) {
	if w < 20 {
		w = 20
	}
	f.title.Width = w
	f.desc.SetWidth(w)
}

// SetValues fills the fields.
func (f *form) SetValues(title, desc string) {
	f.title.SetValue(title)
	f.title.CursorEnd()
	f.desc.SetValue(desc)
	f.err = ""
}

// Focus focuses the title field.
func (f *form) Focus() tea.Cmd {
	f.focused = true
	f.field = fieldTitle
	f.desc.Blur()
	return f.title.Focus()
}

func (f *form) Blur() {
	f.focused = false
	f.title.Blur()
	f.desc.Blur()
}

// NextField moves focus between the title and the description.
func (f *form) NextField() tea.Cmd {
	if f.field == fieldTitle {
		f.field = fieldDesc
		f.title.Blur()
		return f.desc.Focus()
	}
	f.field = fieldTitle
	f.desc.Blur()
	return f.title.Focus()
}

// Submit validates the fields and returns the trimmed draft. An empty title
// sets the validation message and returns false.
func (f *form) Submit() (task.Draft, bool) {
	title := strings.TrimSpace(f.title.Value())
	if title == "" {
		f.err = msgTitleRequired
		return task.Draft{}, false
	}
	f.err = ""
	return task.Draft{
		Title:       title,
		Description: strings.TrimSpace(f.desc.Value()),
	}, true
}

// Reset clears both fields and any validation message.
func (f *form) Reset() {
	f.title.Reset()
	f.desc.Reset()
	f.err = ""
}

// Update forwards msg to the focused field.
func (f form) Update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	if f.field == fieldTitle {
		f.title, cmd = f.title.Update(msg)
		if f.err != "" && strings.TrimSpace(f.title.Value()) != "" {
			f.err = ""
		}
	} else {
		f.desc, cmd = f.desc.Update(msg)
	}
	return f, cmd
}

func (f form) View(s styles) string {
	box := s.form
	if f.focused {
		box = s.formActive
	}

	var b strings.Builder
	b.WriteString(f.title.View())
	b.WriteString("\n")
	b.WriteString(f.desc.View())
	b.WriteString("\n")
	if f.err != "" {
		b.WriteString(s.errText.Render(f.err))
		b.WriteString("\n")
	}

	buttons := s.button.Render("[ " + f.submitLabel + " ]")
	if f.cancelable {
		buttons = lipgloss.JoinHorizontal(lipgloss.Top, buttons, "  ", s.cancel.Render("[ Cancel ]"))
	}
	b.WriteString(buttons)
	return box.Render(b.String())
}
