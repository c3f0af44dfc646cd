package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"todoview/internal/backend/googletasks"
	"todoview/internal/backend/rest"
	"todoview/internal/config"
	"todoview/internal/exitcode"
	"todoview/internal/service"
	"todoview/internal/store"
	"todoview/internal/task"
)

// newStore creates a store that logs through cfg.
func newStore(cfg *config.Config, backend service.Backend) *store.Store {
	return store.New(backend, store.WithLogger(cfg.Log()))
}

// loadStore creates a store and loads the task list into it.
func loadStore(ctx context.Context, cfg *config.Config, backend service.Backend) (*store.Store, error) {
	s := newStore(cfg, backend)
	return s, s.Load(ctx)
}

// resolveTask loads the task list and resolves args to one task. A non-zero
// code means the failure has been reported.
func resolveTask(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, errOut io.Writer) (*store.Store, task.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, task.Task{}, exitcode.UserError
	}

	s, err := loadStore(ctx, cfg, backend)
	if err != nil {
		return nil, task.Task{}, report(errOut, s, err)
	}

	t, err := ResolveRef(s.Snapshot().Todos, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, task.Task{}, exitcode.UserError
	}
	return s, t, exitcode.Success
}

// report prints the failure of a store intent and returns its exit code.
// The store's message is used; generic fallbacks get the cause appended.
func report(errOut io.Writer, s *store.Store, err error) int {
	if errors.Is(err, store.ErrDiscarded) || errors.Is(err, context.Canceled) {
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.BackendError
	}

	msg := ""
	if s != nil {
		msg = s.Snapshot().ErrorMsg
	}
	switch {
	case msg == "":
		msg = err.Error()
	case isFallback(msg) && err.Error() != msg:
		msg = fmt.Sprintf("%s (%v)", msg, err)
	}
	fmt.Fprintf(errOut, "error: %s\n", msg)
	return exitCodeFor(err)
}

func isFallback(msg string) bool {
	switch msg {
	case store.MsgLoadFailed, store.MsgAddFailed, store.MsgToggleFailed,
		store.MsgDeleteFailed, store.MsgUpdateFailed:
		return true
	}
	return false
}

// exitCodeFor maps an intent failure to an exit code.
func exitCodeFor(err error) int {
	if errors.Is(err, store.ErrUnreadableReply) {
		return exitcode.BackendError
	}
	var storeErr store.Error
	if errors.As(err, &storeErr) {
		return exitcode.UserError
	}

	var reqErr *rest.RequestError
	if errors.As(err, &reqErr) && isAuthStatus(reqErr.Status) {
		return exitcode.AuthError
	}
	var apiErr *googletasks.Error
	if errors.As(err, &apiErr) && isAuthStatus(apiErr.Code) {
		return exitcode.AuthError
	}
	return exitcode.BackendError
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// printOK prints the success marker unless quiet.
func printOK(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
