// Package tui is the interactive task list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"todoview/internal/store"
	"todoview/internal/task"
)

const msgStillSaving = "Still saving this task…"

type focusArea int

const (
	focusList focusArea = iota
	focusAdd
	focusEdit
)

type intentKind int

const (
	intentLoad intentKind = iota
	intentAdd
	intentToggle
	intentDelete
	intentUpdate
)

func (k intentKind) String() string {
	switch k {
	case intentLoad:
		return "load"
	case intentAdd:
		return "add"
	case intentToggle:
		return "toggle"
	case intentDelete:
		return "delete"
	case intentUpdate:
		return "update"
	}
	return "unknown"
}

// intentMsg reports a finished store intent. id names the task an update
// was for.
type intentMsg struct {
	kind intentKind
	id   string
	err  error
}

type copiedMsg struct {
	title string
	err   error
}

// Options configures the interactive program.
type Options struct {
	Log *log.Logger

	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

// Model is the Bubble Tea model over a store.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	store *store.Store
	log   *log.Logger
	copy  func(string) error

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	add    form
	edit   form
	editID string
	saving []string // ids with an update in flight

	focus   focusArea
	cursor  int
	pending int

	width  int
	height int

	state    store.State
	styles   styles
	status   string
	quitting bool
}

// New creates a model bound to ctx. Quitting cancels the context, so intents
// still in flight are abandoned.
func New(ctx context.Context, s *store.Store, opts Options) Model {
	ctx, cancel := context.WithCancel(ctx)

	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard)
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	st := s.Snapshot()
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		store:   s,
		log:     logger,
		copy:    clip,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		add:     newForm("Add Task", false),
		edit:    newForm("Save", true),
		state:   st,
		styles:  newStyles(st.Theme),
	}
}

// Init starts the spinner and the initial load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(intentLoad, m.store.Load))
}

// run executes fn off the update loop and reports back as an intentMsg.
func (m Model) run(kind intentKind, fn func(context.Context) error) tea.Cmd {
	return m.runFor(kind, "", fn)
}

func (m Model) runFor(kind intentKind, id string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return intentMsg{kind: kind, id: id, err: fn(ctx)}
	}
}

func (m Model) isSaving(id string) bool {
	return slices.Contains(m.saving, id)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		w := min(msg.Width-6, 80)
		m.add.SetWidth(w)
		m.edit.SetWidth(w - 8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case intentMsg:
		return m.finish(msg), nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
			m.log.Warn("copy failed", "err", msg.err)
		} else {
			m.status = fmt.Sprintf("Copied %q", msg.title)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) finish(msg intentMsg) Model {
	if msg.kind != intentLoad && m.pending > 0 {
		m.pending--
	}
	if errors.Is(msg.err, store.ErrDiscarded) {
		return m
	}
	m.log.Debug("intent finished", "intent", msg.kind, "err", msg.err)
	m.refresh()

	switch msg.kind {
	case intentAdd:
		// An unreadable reply still means the task was created.
		if msg.err == nil || errors.Is(msg.err, store.ErrUnreadableReply) {
			m.add.Reset()
		}
	case intentUpdate:
		m.saving = slices.DeleteFunc(slices.Clone(m.saving), func(id string) bool { return id == msg.id })
		if m.editID == msg.id {
			m.closeEditor()
		}
		if m.status == msgStillSaving {
			m.status = ""
		}
	}
	return m
}

// refresh takes a new snapshot and keeps the cursor in range.
func (m *Model) refresh() {
	m.state = m.store.Snapshot()
	if m.styles.theme != m.state.Theme {
		m.styles = newStyles(m.state.Theme)
	}
	if n := len(m.state.Todos); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Todos) {
		return task.Task{}, false
	}
	return m.state.Todos[m.cursor], true
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.focus != focusList {
		return m.handleFormKey(msg)
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Todos)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			m.pending++
			s := m.store
			return m, m.run(intentToggle, func(ctx context.Context) error {
				return s.Toggle(ctx, t.ID, !t.Completed)
			})
		}

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.pending++
			s := m.store
			return m, m.run(intentDelete, func(ctx context.Context) error {
				return s.Delete(ctx, t.ID)
			})
		}

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			m.editID = t.ID
			m.edit.SetValues(t.Title, t.Description)
			m.focus = focusEdit
			return m, m.edit.Focus()
		}

	case key.Matches(msg, m.keys.Add):
		m.focus = focusAdd
		return m, m.add.Focus()

	case key.Matches(msg, m.keys.Theme):
		m.store.ToggleTheme()
		m.refresh()

	case key.Matches(msg, m.keys.Copy):
		if t, ok := m.selected(); ok {
			clip, title := m.copy, t.Title
			return m, func() tea.Msg {
				return copiedMsg{title: title, err: clip(title)}
			}
		}

	case key.Matches(msg, m.keys.Reload):
		m.state.Loading = true
		return m, m.run(intentLoad, m.store.Load)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.add
	if m.focus == focusEdit {
		f = &m.edit
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.focus == focusEdit {
			m.closeEditor()
		} else {
			m.add.Blur()
			m.focus = focusList
		}
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		return m, f.NextField()

	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter && f.field == fieldTitle:
		return m.submit()
	}

	var cmd tea.Cmd
	*f, cmd = f.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	s := m.store

	if m.focus == focusAdd {
		draft, ok := m.add.Submit()
		if !ok {
			return m, nil
		}
		m.pending++
		return m, m.run(intentAdd, func(ctx context.Context) error {
			_, err := s.Add(ctx, draft)
			return err
		})
	}

	draft, ok := m.edit.Submit()
	if !ok {
		return m, nil
	}
	id := m.editID
	if m.isSaving(id) {
		m.status = msgStillSaving
		return m, nil
	}
	m.saving = append(slices.Clone(m.saving), id)
	m.pending++
	changes := task.Changes{
		Title:       task.String(draft.Title),
		Description: task.String(draft.Description),
	}
	return m, m.runFor(intentUpdate, id, func(ctx context.Context) error {
		_, err := s.Update(ctx, id, changes)
		return err
	})
}

func (m *Model) closeEditor() {
	m.editID = ""
	m.edit.Blur()
	m.edit.Reset()
	if m.focus == focusEdit {
		m.focus = focusList
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.styles

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		s.title.Render("Tasks"), "   ", s.toggle.Render(toggleLabel(m.state.Theme)))
	sub := subtitle(m.state)
	if m.state.Loading {
		sub = m.spinner.View() + " " + sub
	}

	top := []string{header, s.subtitle.Render(sub), "", m.add.View(s)}
	if m.state.ErrorMsg != "" {
		top = append(top, s.errText.Render(m.state.ErrorMsg))
	}
	top = append(top, "")
	topView := strings.Join(top, "\n")

	var bottom []string
	switch {
	case m.status != "":
		bottom = append(bottom, s.status.Render(m.status))
	case len(m.saving) > 0:
		bottom = append(bottom, s.status.Render(m.spinner.View()+" Saving…"))
	case m.pending > 0:
		bottom = append(bottom, s.status.Render(m.spinner.View()+" Syncing…"))
	}
	if m.focus == focusList {
		bottom = append(bottom, m.help.View(m.keys))
	} else {
		bottom = append(bottom, m.help.View(formKeys{m.keys}))
	}
	bottomView := strings.Join(bottom, "\n")

	editor := ""
	if m.editID != "" {
		editor = m.edit.View(s)
	}
	lv := renderList(m.state.Todos, m.cursor, m.width, m.focus == focusList, m.editID, editor, s)

	list := lv.content
	if m.height > 0 {
		h := max(m.height-lipgloss.Height(topView)-lipgloss.Height(bottomView)-1, 3)
		vp := viewport.New(m.width, h)
		vp.SetContent(lv.content)
		if lv.selBottom >= h {
			vp.SetYOffset(lv.selBottom - h + 1)
		}
		list = vp.View()
	}

	return topView + "\n" + list + "\n\n" + bottomView
}

// Run runs the interactive program until the user quits or ctx is done.
func Run(ctx context.Context, s *store.Store, opts Options) error {
	applyColorProfile()

	m := New(ctx, s, opts)
	popts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(m, popts...).Run()
	if fm, ok := final.(Model); ok {
		fm.cancel()
	}
	m.cancel()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
