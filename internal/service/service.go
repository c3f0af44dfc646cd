// Package service defines the backend-agnostic contract for task operations.
package service

import (
	"context"

	"todoview/internal/task"
)

// Backend is the remote source of truth for tasks.
// The store and commands only talk to a backend through this interface;
// they never import a transport or SDK directly.
type Backend interface {
	// List returns every task in backend order.
	List(ctx context.Context) ([]task.RawTask, error)

	// Create creates a task and returns the server's representation of it.
	Create(ctx context.Context, draft task.Draft) (task.RawTask, error)

	// Update replaces the task with the given id. The payload always carries
	// every field; the backend does not merge.
	Update(ctx context.Context, id string, payload task.Payload) (task.RawTask, error)

	// Delete deletes the task with the given id.
	Delete(ctx context.Context, id string) error
}

