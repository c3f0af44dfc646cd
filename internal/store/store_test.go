package store_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"todoview/internal/backend/rest"
	"todoview/internal/store"
	"todoview/internal/task"
	"todoview/internal/testutil"
)

func loaded(t *testing.T, fb *testutil.FakeBackend) *store.Store {
	t.Helper()
	s := store.New(fb)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestNew_InitialState(t *testing.T) {
	s := store.New(testutil.NewFakeBackend())
	st := s.Snapshot()

	if !st.Loading {
		t.Error("expected Loading before the first load")
	}
	if st.Theme != store.ThemeLight {
		t.Errorf("expected light theme, got %s", st.Theme)
	}
	if len(st.Todos) != 0 || st.ErrorMsg != "" {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestLoad_Success(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "first", false)
	fb.AddRaw(task.RawTask{"task_id": "2", "name": "second", "is_done": true})

	s := loaded(t, fb)
	st := s.Snapshot()

	if st.Loading {
		t.Error("expected Loading=false after load")
	}
	if len(st.Todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(st.Todos))
	}
	if st.Todos[0].ID != "1" || st.Todos[1].ID != "2" {
		t.Errorf("expected backend order, got %+v", st.Todos)
	}
	if st.Todos[1].Title != "second" || !st.Todos[1].Completed {
		t.Errorf("expected aliased fields normalized, got %+v", st.Todos[1])
	}
	if s.Remaining() != 1 {
		t.Errorf("expected 1 remaining, got %d", s.Remaining())
	}
	if st.Remaining() != 1 {
		t.Errorf("expected snapshot to count 1 remaining, got %d", st.Remaining())
	}
}

func TestLoad_DuplicateIDsKeepFirst(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "first", false)
	fb.AddTask("1", "again", true)

	st := loaded(t, fb).Snapshot()
	if len(st.Todos) != 1 || st.Todos[0].Title != "first" {
		t.Errorf("expected only the first occurrence, got %+v", st.Todos)
	}
}

func TestLoad_FailureKeepsTodos(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "first", false)
	s := loaded(t, fb)

	fb.ListErr = errors.New("connection refused")
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	st := s.Snapshot()
	if st.ErrorMsg != store.MsgLoadFailed {
		t.Errorf("expected %q, got %q", store.MsgLoadFailed, st.ErrorMsg)
	}
	if st.Loading {
		t.Error("expected Loading=false after failure")
	}
	if len(st.Todos) != 1 {
		t.Errorf("expected last known todos kept, got %+v", st.Todos)
	}
}

func TestLoad_UnsupportedShape(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddRaw(task.RawTask{"id": "1", "title": []any{"a"}})

	s := store.New(fb)
	err := s.Load(context.Background())
	if !errors.Is(err, task.ErrUnsupportedShape) {
		t.Fatalf("expected ErrUnsupportedShape, got %v", err)
	}
	if got := s.Snapshot().ErrorMsg; got != store.MsgLoadFailed {
		t.Errorf("expected fallback message, got %q", got)
	}
}

func TestLoad_DiscardedAfterCancel(t *testing.T) {
	tests := []struct {
		name    string
		listErr error
	}{
		{"success", nil},
		{"failure", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := testutil.NewFakeBackend()
			fb.AddTask("1", "late", false)
			fb.ListErr = tt.listErr
			fb.Gate = make(chan struct{})
			fb.Entered = make(chan string, 1)

			s := store.New(fb)
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() { done <- s.Load(ctx) }()

			<-fb.Entered
			cancel()
			close(fb.Gate)

			if err := <-done; !errors.Is(err, store.ErrDiscarded) {
				t.Fatalf("expected ErrDiscarded, got %v", err)
			}
			st := s.Snapshot()
			if len(st.Todos) != 0 {
				t.Errorf("expected discarded result not applied, got %+v", st.Todos)
			}
			if st.ErrorMsg != "" {
				t.Errorf("expected no error message, got %q", st.ErrorMsg)
			}
		})
	}
}

func TestAdd_PrependsWithDefaults(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "old", false)
	fb.Omit = []string{"completed", "description"}
	s := loaded(t, fb)

	created, err := s.Add(context.Background(), task.Draft{Title: "A", Description: "typed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Completed {
		t.Error("expected completed=false when the server omits it")
	}
	if created.Description != "typed" {
		t.Errorf("expected draft description fallback, got %q", created.Description)
	}

	st := s.Snapshot()
	if len(st.Todos) != 2 || st.Todos[0].ID != created.ID {
		t.Errorf("expected new task first, got %+v", st.Todos)
	}
}

func TestAdd_FailureLeavesTodos(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "old", false)
	s := loaded(t, fb)

	fb.CreateErr = &rest.RequestError{Status: 400, Message: "title required"}
	if _, err := s.Add(context.Background(), task.Draft{}); err == nil {
		t.Fatal("expected error")
	}

	st := s.Snapshot()
	if st.ErrorMsg != "title required" {
		t.Errorf("expected server message, got %q", st.ErrorMsg)
	}
	if len(st.Todos) != 1 {
		t.Errorf("expected no optimistic insert, got %+v", st.Todos)
	}
}

func TestAdd_NetworkFailureUsesFallback(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.CreateErr = &rest.NetworkError{Op: "POST", URL: "http://x/tasks", Err: errors.New("refused")}
	s := loaded(t, fb)

	s.Add(context.Background(), task.Draft{Title: "A"})
	if got := s.Snapshot().ErrorMsg; got != store.MsgAddFailed {
		t.Errorf("expected %q, got %q", store.MsgAddFailed, got)
	}
}

func TestAdd_ProvisionalWhenServerOmitsID(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.NoID = true
	s := loaded(t, fb)

	created, err := s.Add(context.Background(), task.Draft{Title: "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.Provisional {
		t.Fatal("expected provisional task")
	}

	err = s.Toggle(context.Background(), created.ID, true)
	if !errors.Is(err, store.ErrProvisional) {
		t.Fatalf("expected ErrProvisional, got %v", err)
	}
	if got := s.Snapshot().ErrorMsg; got != store.ErrProvisional.Error() {
		t.Errorf("expected provisional message, got %q", got)
	}
	for _, c := range fb.Calls() {
		if c.Op == "update" {
			t.Error("expected no update request for a provisional task")
		}
	}
}

func TestToggle_AppliesEcho(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddRaw(task.RawTask{"id": "1", "title": "keep", "description": "d", "completed": false})
	s := loaded(t, fb)

	if err := s.Toggle(context.Background(), "1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.Task("1")
	want := task.Task{ID: "1", Title: "keep", Description: "d", Completed: true}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	call := fb.LastCall()
	wantPayload := task.Payload{Title: "keep", Description: "d", Completed: true}
	if call.Op != "update" || call.ID != "1" || call.Payload != wantPayload {
		t.Errorf("expected full payload %+v, got %+v", wantPayload, call)
	}
}

func TestToggle_RequestedValueWhenNotEchoed(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "t", true)
	fb.Omit = []string{"completed"}
	s := loaded(t, fb)

	if err := s.Toggle(context.Background(), "1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := s.Task("1"); got.Completed {
		t.Error("expected requested value when the server omits completed")
	}
}

func TestToggle_Failure(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "t", false)
	s := loaded(t, fb)

	fb.UpdateErr = errors.New("timeout")
	if err := s.Toggle(context.Background(), "1", true); err == nil {
		t.Fatal("expected error")
	}
	if got, _ := s.Task("1"); got.Completed {
		t.Error("expected no optimistic toggle")
	}
	if got := s.Snapshot().ErrorMsg; got != store.MsgToggleFailed {
		t.Errorf("expected %q, got %q", store.MsgToggleFailed, got)
	}
}

func TestToggle_UnknownID(t *testing.T) {
	fb := testutil.NewFakeBackend()
	s := loaded(t, fb)

	err := s.Toggle(context.Background(), "nope", true)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := s.Snapshot().ErrorMsg; got != "Task not found." {
		t.Errorf("expected not found message, got %q", got)
	}
	if len(fb.Calls()) != 1 {
		t.Errorf("expected only the load call, got %+v", fb.Calls())
	}
}

func TestUpdate_BackfillsPayload(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddRaw(task.RawTask{"id": "1", "title": "old", "description": "d", "completed": false})
	s := loaded(t, fb)

	got, err := s.Update(context.Background(), "1", task.Changes{Title: task.String("new")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := task.Payload{Title: "new", Description: "d", Completed: false}
	if p := fb.LastCall().Payload; p != want {
		t.Errorf("expected payload %+v, got %+v", want, p)
	}
	if got.Title != "new" || got.Description != "d" {
		t.Errorf("expected merged record, got %+v", got)
	}
	if rec, _ := s.Task("1"); rec != got {
		t.Errorf("expected store to hold %+v, got %+v", got, rec)
	}
}

func TestUpdate_SentValuesWhenNotEchoed(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "old", false)
	fb.Omit = []string{"title", "description"}
	s := loaded(t, fb)

	got, err := s.Update(context.Background(), "1", task.Changes{
		Title:       task.String("new"),
		Description: task.String("more"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "new" || got.Description != "more" {
		t.Errorf("expected sent values, got %+v", got)
	}
}

func TestUpdate_Failure(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "old", false)
	s := loaded(t, fb)

	fb.UpdateErr = errors.New("boom")
	if _, err := s.Update(context.Background(), "1", task.Changes{Title: task.String("new")}); err == nil {
		t.Fatal("expected error")
	}
	if got, _ := s.Task("1"); got.Title != "old" {
		t.Errorf("expected record unchanged, got %+v", got)
	}
	if got := s.Snapshot().ErrorMsg; got != store.MsgUpdateFailed {
		t.Errorf("expected %q, got %q", store.MsgUpdateFailed, got)
	}
}

// garbledReplies saves like the fake but answers writes with a title of an
// unsupported shape.
type garbledReplies struct {
	*testutil.FakeBackend
}

func (g garbledReplies) Create(ctx context.Context, d task.Draft) (task.RawTask, error) {
	if _, err := g.FakeBackend.Create(ctx, d); err != nil {
		return nil, err
	}
	return task.RawTask{"id": "9", "title": []any{"x"}}, nil
}

func (g garbledReplies) Update(ctx context.Context, id string, p task.Payload) (task.RawTask, error) {
	if _, err := g.FakeBackend.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return task.RawTask{"id": id, "title": []any{"x"}}, nil
}

func TestAdd_UnreadableReplySaysSaved(t *testing.T) {
	fb := testutil.NewFakeBackend()
	s := store.New(garbledReplies{fb})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := s.Add(context.Background(), task.Draft{Title: "A"})
	if !errors.Is(err, store.ErrUnreadableReply) || !errors.Is(err, task.ErrUnsupportedShape) {
		t.Fatalf("expected unreadable reply wrapping the shape error, got %v", err)
	}
	if got := s.Snapshot().ErrorMsg; got != string(store.ErrUnreadableReply) {
		t.Errorf("expected saved-but-unreadable message, got %q", got)
	}
	if len(fb.Items()) != 1 {
		t.Errorf("expected the backend to hold the new task, got %d", len(fb.Items()))
	}
}

func TestUpdate_UnreadableReplySaysSaved(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "old", false)
	s := store.New(garbledReplies{fb})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := s.Update(context.Background(), "1", task.Changes{Title: task.String("new")})
	if !errors.Is(err, store.ErrUnreadableReply) {
		t.Fatalf("expected ErrUnreadableReply, got %v", err)
	}
	if got := s.Snapshot().ErrorMsg; got != string(store.ErrUnreadableReply) {
		t.Errorf("expected saved-but-unreadable message, got %q", got)
	}
	if got, _ := s.Task("1"); got.Title != "old" {
		t.Errorf("expected local record untouched until reload, got %+v", got)
	}
}

func TestDelete_Success(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "a", false)
	fb.AddTask("2", "b", false)
	s := loaded(t, fb)

	if err := s.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := s.Snapshot()
	if len(st.Todos) != 1 || st.Todos[0].ID != "2" {
		t.Errorf("expected only task 2 left, got %+v", st.Todos)
	}
}

// TestDelete_ServerDetail runs the store against the real HTTP client.
func TestDelete_ServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `[{"id":"1","title":"keep me"}]`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"detail":"gone"}`)
		}
	}))
	defer srv.Close()

	client, err := rest.New(srv.URL)
	if err != nil {
		t.Fatalf("rest.New: %v", err)
	}
	s := store.New(client)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.Delete(context.Background(), "1"); err == nil {
		t.Fatal("expected error")
	}

	st := s.Snapshot()
	if st.ErrorMsg != "gone" {
		t.Errorf("expected ErrorMsg 'gone', got %q", st.ErrorMsg)
	}
	if len(st.Todos) != 1 || st.Todos[0].ID != "1" {
		t.Errorf("expected record to remain, got %+v", st.Todos)
	}
}

func TestErrorClearedByNextIntent(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "a", false)
	s := loaded(t, fb)

	fb.DeleteErr = errors.New("boom")
	s.Delete(context.Background(), "1")
	if s.Snapshot().ErrorMsg == "" {
		t.Fatal("expected error message after failure")
	}

	fb.DeleteErr = nil
	if err := s.Toggle(context.Background(), "1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Snapshot().ErrorMsg; got != "" {
		t.Errorf("expected error cleared, got %q", got)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddTask("1", "a", false)
	s := loaded(t, fb)

	st := s.Snapshot()
	st.Todos[0].Title = "mutated"

	if got, _ := s.Task("1"); got.Title != "a" {
		t.Errorf("expected snapshot mutation not to leak, got %q", got.Title)
	}
}

func TestToggleTheme(t *testing.T) {
	s := store.New(testutil.NewFakeBackend(), store.WithTheme(store.ThemeDark))

	if got := s.ToggleTheme(); got != store.ThemeLight {
		t.Errorf("expected light, got %s", got)
	}
	if got := s.ToggleTheme(); got != store.ThemeDark {
		t.Errorf("expected dark, got %s", got)
	}
}

func TestParseTheme(t *testing.T) {
	if th, err := store.ParseTheme(" Dark "); err != nil || th != store.ThemeDark {
		t.Errorf("expected dark, got %q (%v)", th, err)
	}
	if _, err := store.ParseTheme("blue"); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestConcurrentIntents(t *testing.T) {
	fb := testutil.NewFakeBackend()
	for _, id := range []string{"1", "2", "3", "4"} {
		fb.AddTask(id, "t"+id, false)
	}
	s := loaded(t, fb)

	var wg sync.WaitGroup
	for _, id := range []string{"1", "2", "3", "4"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.Toggle(context.Background(), id, true)
		}(id)
	}
	wg.Wait()

	if s.Remaining() != 0 {
		t.Errorf("expected all toggled, got %d remaining", s.Remaining())
	}
}

func TestMessage(t *testing.T) {
	if got := store.Message(&rest.RequestError{Message: "  "}, "fallback"); got != "fallback" {
		t.Errorf("expected fallback for blank message, got %q", got)
	}
	wrapped := errors.Join(errors.New("ctx"), &rest.RequestError{Message: "server says"})
	if got := store.Message(wrapped, "fallback"); !strings.Contains(got, "server says") {
		t.Errorf("expected wrapped server message, got %q", got)
	}
}
