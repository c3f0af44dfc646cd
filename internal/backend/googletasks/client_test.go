package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"todoview/internal/store"
	"todoview/internal/task"
)

// apiServer fakes the Tasks REST endpoints of the default list.
type apiServer struct {
	t        *testing.T
	items    []map[string]any
	lastBody map[string]any
	status   int
}

func (s *apiServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.status != 0 {
		w.WriteHeader(s.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"backend exploded"}}`, s.status)
		return
	}

	const prefix = "/tasks/v1/lists/@default/tasks"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		s.t.Errorf("unexpected path %s", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		s.lastBody = nil
		if len(data) > 0 {
			json.Unmarshal(data, &s.lastBody)
		}
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		json.NewEncoder(w).Encode(map[string]any{"kind": "tasks#tasks", "items": s.items})
	case r.Method == http.MethodPost:
		created := map[string]any{"id": "g-new", "title": s.lastBody["title"], "notes": s.lastBody["notes"], "status": "needsAction"}
		json.NewEncoder(w).Encode(created)
	case r.Method == http.MethodPut:
		s.lastBody["id"] = id
		json.NewEncoder(w).Encode(s.lastBody)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		s.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}
}

func newTestClient(t *testing.T, api *apiServer) *Client {
	t.Helper()
	api.t = t
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	return c
}

func TestList_MapsFields(t *testing.T) {
	api := &apiServer{items: []map[string]any{
		{"id": "a", "title": "Buy milk", "notes": "2%", "status": "needsAction"},
		{"id": "b", "title": "Done thing", "status": "completed"},
	}}
	c := newTestClient(t, api)

	items, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first, err := task.Normalize(items[0])
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := task.Task{ID: "a", Title: "Buy milk", Description: "2%", Completed: false}
	if first != want {
		t.Errorf("expected %+v, got %+v", want, first)
	}
	if items[1]["completed"] != true {
		t.Errorf("expected completed status mapped to true, got %#v", items[1])
	}
}

func TestCreate(t *testing.T) {
	api := &apiServer{}
	c := newTestClient(t, api)

	raw, err := c.Create(context.Background(), task.Draft{Title: "New", Description: "notes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastBody["title"] != "New" || api.lastBody["notes"] != "notes" {
		t.Errorf("unexpected request body: %#v", api.lastBody)
	}
	if raw["id"] != "g-new" || raw["description"] != "notes" {
		t.Errorf("unexpected raw task: %#v", raw)
	}
}

func TestUpdate_SendsStatus(t *testing.T) {
	api := &apiServer{}
	c := newTestClient(t, api)

	raw, err := c.Update(context.Background(), "a", task.Payload{Title: "T", Description: "", Completed: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastBody["status"] != "completed" {
		t.Errorf("expected completed status, got %#v", api.lastBody)
	}
	if _, ok := api.lastBody["notes"]; !ok {
		t.Error("expected empty notes to be sent")
	}
	if raw["completed"] != true {
		t.Errorf("expected echoed completion, got %#v", raw)
	}

	if _, err := c.Update(context.Background(), "a", task.Payload{Title: "T"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastBody["status"] != "needsAction" {
		t.Errorf("expected needsAction status, got %#v", api.lastBody)
	}
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, &apiServer{})
	if err := c.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAPIError_UserMessage(t *testing.T) {
	c := newTestClient(t, &apiServer{status: http.StatusBadRequest})

	_, err := c.List(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if apiErr.Code != http.StatusBadRequest {
		t.Errorf("expected code 400, got %d", apiErr.Code)
	}
	if got := store.Message(err, "fallback"); got != "backend exploded" {
		t.Errorf("expected server message, got %q", got)
	}
}

func TestWrapError_Auth(t *testing.T) {
	c := newTestClient(t, &apiServer{status: http.StatusUnauthorized})

	err := c.Delete(context.Background(), "a")
	if err == nil || !strings.Contains(err.Error(), "todoview login") {
		t.Errorf("expected login hint, got %v", err)
	}
}
