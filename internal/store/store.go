// Package store holds the application state and the intents that change it.
//
// Every mutation is confirm-then-apply: the backend is called first and the
// state only changes once it has answered. Backend calls run outside the
// lock, so intents may overlap; their completions apply in the order the
// backend answers them.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"todoview/internal/service"
	"todoview/internal/task"
)

// Fallback messages shown when a failure carries no message of its own.
const (
	MsgLoadFailed   = "Failed to load tasks."
	MsgAddFailed    = "Failed to add task."
	MsgToggleFailed = "Failed to update task status."
	MsgDeleteFailed = "Failed to delete task."
	MsgUpdateFailed = "Failed to save changes."
)

// Error is a store failure whose text is fit to show to the user.
type Error string

func (e Error) Error() string { return string(e) }

// UserMessage returns the error text.
func (e Error) UserMessage() string { return string(e) }

const (
	// ErrNotFound is returned when an intent names an id the store does not hold.
	ErrNotFound = Error("Task not found.")

	// ErrProvisional is returned for writes to a task whose id was
	// synthesized locally and therefore means nothing to the backend.
	ErrProvisional = Error("This task has no server id yet; reload to edit it.")

	// ErrUnreadableReply is returned when the backend accepted a change but
	// its reply could not be read. The change is saved; a reload shows it.
	ErrUnreadableReply = Error("Saved, but the server's reply could not be read. Reload to see the change.")
)

// ErrDiscarded is returned by Load when its context ended before the backend
// answered. The answer is dropped and the state is left alone.
var ErrDiscarded = errors.New("load result discarded")

// Message returns the text to show for err: the error's own user message
// when it has one, otherwise fallback.
func Message(err error, fallback string) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

// State is a snapshot of everything the presentation renders.
type State struct {
	Theme    Theme
	Todos    []task.Task
	Loading  bool
	ErrorMsg string
}

// Remaining counts the tasks not yet completed.
func (st State) Remaining() int {
	n := 0
	for _, t := range st.Todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

// Store is safe for concurrent use.
type Store struct {
	backend service.Backend
	log     *log.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for intent failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithTheme sets the initial theme.
func WithTheme(t Theme) Option {
	return func(s *Store) { s.state.Theme = t }
}

// New creates a store over backend. The state starts loading, with no tasks.
func New(backend service.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     log.New(io.Discard),
		state: State{
			Theme:   ThemeLight,
			Todos:   []task.Task{},
			Loading: true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Todos = make([]task.Task, len(s.state.Todos))
	copy(st.Todos, s.state.Todos)
	return st
}

// Remaining returns the number of tasks not yet completed.
func (s *Store) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Remaining()
}

// Task returns the task with the given id.
func (s *Store) Task(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return task.Task{}, false
	}
	return s.state.Todos[i], true
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Store) ToggleTheme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Theme = s.state.Theme.Toggle()
	return s.state.Theme
}

// Load replaces the task list with the backend's. Duplicate ids keep their
// first occurrence. If ctx is done by the time the backend answers, the
// answer is discarded and ErrDiscarded is returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.ErrorMsg = ""
	s.mu.Unlock()

	raws, err := s.backend.List(ctx)
	if ctx.Err() != nil {
		s.log.Debug("load discarded", "err", ctx.Err())
		return ErrDiscarded
	}

	var todos []task.Task
	if err == nil {
		todos, err = normalizeAll(raws)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		return s.failLocked("load", err, MsgLoadFailed)
	}
	s.state.Todos = todos
	s.log.Debug("loaded tasks", "count", len(todos))
	return nil
}

func normalizeAll(raws []task.RawTask) ([]task.Task, error) {
	todos := make([]task.Task, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		t, err := task.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		todos = append(todos, t)
	}
	return todos, nil
}

// Add creates a task and puts it first in the list once the backend has
// confirmed it.
func (s *Store) Add(ctx context.Context, draft task.Draft) (task.Task, error) {
	s.clearError()

	raw, err := s.backend.Create(ctx, draft)
	if err != nil {
		return task.Task{}, s.fail("add", err, MsgAddFailed)
	}
	created, err := task.NormalizeCreated(raw, draft)
	if err != nil {
		return task.Task{}, s.fail("add", unreadable(err), MsgAddFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(created.ID); i >= 0 {
		s.state.Todos = append(s.state.Todos[:i], s.state.Todos[i+1:]...)
	}
	s.state.Todos = append([]task.Task{created}, s.state.Todos...)
	return created, nil
}

// Toggle sets the completion flag of a task. The backend needs a full
// payload, so title and description are taken from the current record.
func (s *Store) Toggle(ctx context.Context, id string, completed bool) error {
	s.clearError()

	current, err := s.writable(id)
	if err != nil {
		return s.fail("toggle", err, MsgToggleFailed)
	}

	payload := task.Changes{Completed: task.Bool(completed)}.Apply(current)
	raw, err := s.backend.Update(ctx, current.ID, payload)
	if err != nil {
		return s.fail("toggle", err, MsgToggleFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.state.Todos[i].Completed = task.CompletedOr(raw, completed)
	}
	return nil
}

// Delete removes a task once the backend has confirmed the deletion.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.clearError()

	current, err := s.writable(id)
	if err != nil {
		return s.fail("delete", err, MsgDeleteFailed)
	}
	if err := s.backend.Delete(ctx, current.ID); err != nil {
		return s.fail("delete", err, MsgDeleteFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.state.Todos = append(s.state.Todos[:i], s.state.Todos[i+1:]...)
	}
	return nil
}

// Update applies changes to a task. Fields left nil in changes are sent
// with their current values. Only title and description are taken back from
// the response.
func (s *Store) Update(ctx context.Context, id string, changes task.Changes) (task.Task, error) {
	s.clearError()

	current, err := s.writable(id)
	if err != nil {
		return task.Task{}, s.fail("update", err, MsgUpdateFailed)
	}

	payload := changes.Apply(current)
	raw, err := s.backend.Update(ctx, current.ID, payload)
	if err != nil {
		return task.Task{}, s.fail("update", err, MsgUpdateFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		// Removed while the request was in flight.
		return task.Task{}, nil
	}
	merged, err := task.MergeUpdated(s.state.Todos[i], raw, payload)
	if err != nil {
		return task.Task{}, s.failLocked("update", unreadable(err), MsgUpdateFailed)
	}
	s.state.Todos[i] = merged
	return merged, nil
}

// writable returns the current record for id, refusing unknown and
// provisional tasks.
func (s *Store) writable(id string) (task.Task, error) {
	t, ok := s.Task(id)
	if !ok {
		return task.Task{}, ErrNotFound
	}
	if t.Provisional {
		return task.Task{}, ErrProvisional
	}
	return t, nil
}

func (s *Store) clearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ErrorMsg = ""
}

func (s *Store) fail(intent string, err error, fallback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(intent, err, fallback)
}

// failLocked records the user-facing message for err. Caller holds s.mu.
func (s *Store) failLocked(intent string, err error, fallback string) error {
	s.state.ErrorMsg = Message(err, fallback)
	s.log.Warn("intent failed", "intent", intent, "err", err)
	return err
}

func unreadable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnreadableReply, err)
}

// indexLocked returns the position of id in the list, or -1.
// Caller holds s.mu.
func (s *Store) indexLocked(id string) int {
	for i, t := range s.state.Todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
