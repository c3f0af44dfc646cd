// Package rest implements service.Backend over the /tasks REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"todoview/internal/task"
)

const (
	// DefaultBaseURL is used when no base address is configured.
	DefaultBaseURL = "http://localhost:5001"

	// TasksPath is the collection resource.
	TasksPath = "/tasks"
)

// ErrUnexpectedShape is returned when a success body does not have the
// shape the operation expects (e.g. a list response that is not an array).
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Client implements service.Backend against a REST server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	timeout time.Duration
	log     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken authenticates every request with a static bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.token != "" {
		// oauth2.Transport sets the Authorization header and leaves the
		// rest of the wrapped client's behaviour alone.
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.http
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"}),
			Base:   base,
		}
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches every task.
func (c *Client) List(ctx context.Context) ([]task.RawTask, error) {
	body, err := c.do(ctx, http.MethodGet, TasksPath, nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []task.RawTask{}, nil
	}
	items, ok := body.([]any)
	if !ok {
		return nil, fmt.Errorf("list tasks: %w: got %T, want array", ErrUnexpectedShape, body)
	}
	result := make([]task.RawTask, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("list tasks: %w: element %d is %T, want object", ErrUnexpectedShape, i, item)
		}
		result = append(result, task.RawTask(m))
	}
	return result, nil
}

// Create posts a new task.
func (c *Client) Create(ctx context.Context, draft task.Draft) (task.RawTask, error) {
	body, err := c.do(ctx, http.MethodPost, TasksPath, draft)
	if err != nil {
		return nil, err
	}
	return entity(body), nil
}

// Update replaces a task.
func (c *Client) Update(ctx context.Context, id string, payload task.Payload) (task.RawTask, error) {
	body, err := c.do(ctx, http.MethodPut, taskPath(id), payload)
	if err != nil {
		return nil, err
	}
	return entity(body), nil
}

// Delete removes a task. The acknowledgement body is not used.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, taskPath(id), nil)
	return err
}

func taskPath(id string) string {
	return TasksPath + "/" + url.PathEscape(id)
}

// entity returns body as a raw task. Bodies that are not objects (empty,
// text) become an empty task so callers fall back to what they sent.
func entity(body any) task.RawTask {
	if m, ok := body.(map[string]any); ok {
		return task.RawTask(m)
	}
	return task.RawTask{}
}

// do sends one request and decodes the response body.
func (c *Client) do(ctx context.Context, method, path string, in any) (any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + path

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return nil, &NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body := decodeBody(resp)
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(resp.StatusCode, body)
	}
	return body, nil
}

// decodeBody decodes JSON bodies when the content type says so and returns
// text otherwise. Read or parse failures yield nil.
func decodeBody(resp *http.Response) any {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil
		}
		return v
	}

	if len(data) == 0 {
		return nil
	}
	return string(data)
}
