// Package googletasks implements service.Backend over the user's default
// Google Tasks list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todoview/internal/config"
	"todoview/internal/task"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per request.
	PageSize = 100

	// APITimeout bounds each API call unless the config sets its own.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = tasks.TasksScope

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Backend using the Google Tasks API.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
}

// New creates a client from the stored OAuth client and token.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json (run: todoview login): %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// The token source refreshes the access token as needed.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	if cfg.RequestTimeout > 0 {
		c.timeout = cfg.RequestTimeout
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client. Extra
// options (e.g. option.WithEndpoint) are passed to the API service.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: DefaultListID, timeout: APITimeout}, nil
}

// List returns every task of the default list, completed ones included.
func (c *Client) List(ctx context.Context) ([]task.RawTask, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := []task.RawTask{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, raw(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// Create inserts a task at the top of the default list.
func (c *Client) Create(ctx context.Context, draft task.Draft) (task.RawTask, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title: draft.Title,
		Notes: draft.Description,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}
	return raw(created), nil
}

// Update replaces title, notes and status of a task.
func (c *Client) Update(ctx context.Context, id string, payload task.Payload) (task.RawTask, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := statusNeedsAction
	if payload.Completed {
		status = statusCompleted
	}
	updated, err := c.svc.Tasks.Update(c.listID, id, &tasks.Task{
		Id:     id,
		Title:  payload.Title,
		Notes:  payload.Description,
		Status: status,
		// Send empty notes so that clearing a description sticks.
		ForceSendFields: []string{"Notes"},
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}
	return raw(updated), nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// raw maps an API task onto the canonical keys.
func raw(t *tasks.Task) task.RawTask {
	if t == nil {
		return task.RawTask{}
	}
	r := task.RawTask{
		"title":       t.Title,
		"description": t.Notes,
		"completed":   t.Status == statusCompleted,
	}
	if t.Id != "" {
		r["id"] = t.Id
	}
	return r
}

// Error is an API failure with a message fit for display.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the display message.
func (e *Error) UserMessage() string { return e.Message }

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "request timed out", Err: err}
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Code: apiErr.Code, Message: "token expired or revoked (run: todoview login)", Err: err}
	case http.StatusNotFound:
		return &Error{Code: apiErr.Code, Message: "not found", Err: err}
	}
	msg := apiErr.Message
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", apiErr.Code)
	}
	return &Error{Code: apiErr.Code, Message: msg, Err: err}
}
