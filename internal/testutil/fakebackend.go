// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"todoview/internal/task"
)

// ErrNotFound is returned when a task id is not known to the fake.
var ErrNotFound = errors.New("not found")

// Call records one request made to a FakeBackend.
type Call struct {
	Op      string // "list", "create", "update" or "delete"
	ID      string
	Draft   task.Draft
	Payload task.Payload
}

// FakeBackend is an in-memory implementation of service.Backend for testing.
// Tasks are held as raw maps so tests can seed arbitrary backend shapes.
type FakeBackend struct {
	mu    sync.Mutex
	items []task.RawTask
	calls []Call
	seq   int

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Gate, when non-nil, blocks every call until it is closed. Entered
	// receives the operation name as each call starts waiting.
	Gate    chan struct{}
	Entered chan string

	// Omit lists keys stripped from create and update responses, to mimic
	// servers that do not echo every field.
	Omit []string

	// NoID makes Create return tasks without any identifier.
	NoID bool
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

// AddTask adds a canonical task.
func (f *FakeBackend) AddTask(id, title string, completed bool) {
	f.AddRaw(task.RawTask{
		"id":          id,
		"title":       title,
		"description": "",
		"completed":   completed,
	})
}

// AddRaw adds a task in any shape.
func (f *FakeBackend) AddRaw(raw task.RawTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, clone(raw))
}

// Items returns a copy of the stored tasks.
func (f *FakeBackend) Items() []task.RawTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]task.RawTask, len(f.items))
	for i, raw := range f.items {
		out[i] = clone(raw)
	}
	return out
}

// Calls returns the requests received so far.
func (f *FakeBackend) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastCall returns the most recent request, or a zero Call.
func (f *FakeBackend) LastCall() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Call{}
	}
	return f.calls[len(f.calls)-1]
}

// List implements service.Backend.
func (f *FakeBackend) List(ctx context.Context) ([]task.RawTask, error) {
	f.record(Call{Op: "list"})
	f.wait("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Items(), nil
}

// Create implements service.Backend.
func (f *FakeBackend) Create(ctx context.Context, draft task.Draft) (task.RawTask, error) {
	f.record(Call{Op: "create", Draft: draft})
	f.wait("create")
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	raw := task.RawTask{
		"title":       draft.Title,
		"description": draft.Description,
		"completed":   false,
	}
	if !f.NoID {
		f.seq++
		raw["id"] = fmt.Sprintf("new-%d", f.seq)
	}
	f.items = append(f.items, raw)
	return f.echo(raw), nil
}

// Update implements service.Backend.
func (f *FakeBackend) Update(ctx context.Context, id string, payload task.Payload) (task.RawTask, error) {
	f.record(Call{Op: "update", ID: id, Payload: payload})
	f.wait("update")
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	raw := f.items[i]
	raw["title"] = payload.Title
	raw["description"] = payload.Description
	raw["completed"] = payload.Completed
	return f.echo(raw), nil
}

// Delete implements service.Backend.
func (f *FakeBackend) Delete(ctx context.Context, id string) error {
	f.record(Call{Op: "delete", ID: id})
	f.wait("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return ErrNotFound
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

func (f *FakeBackend) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// wait blocks on Gate. It deliberately ignores the caller's context so that
// tests can observe what happens when a response arrives after cancellation.
func (f *FakeBackend) wait(op string) {
	if f.Gate == nil {
		return
	}
	if f.Entered != nil {
		f.Entered <- op
	}
	<-f.Gate
}

// index finds a task by any id alias. Caller holds f.mu.
func (f *FakeBackend) index(id string) int {
	for i, raw := range f.items {
		for _, key := range task.Aliases[task.FieldID] {
			if v, ok := raw[key]; ok && v != nil && fmt.Sprint(v) == id {
				return i
			}
		}
	}
	return -1
}

// echo returns the response body for raw. Caller holds f.mu.
func (f *FakeBackend) echo(raw task.RawTask) task.RawTask {
	out := clone(raw)
	for _, key := range f.Omit {
		delete(out, key)
	}
	return out
}

func clone(raw task.RawTask) task.RawTask {
	out := make(task.RawTask, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
