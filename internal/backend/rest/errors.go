package rest

import (
	"fmt"
	"strings"
)

// RequestError is returned for responses outside the 2xx range.
type RequestError struct {
	Status  int
	Body    any
	Message string
}

func newRequestError(status int, body any) *RequestError {
	msg := serverMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	return &RequestError{Status: status, Body: body, Message: msg}
}

func (e *RequestError) Error() string {
	return e.Message
}

// UserMessage returns the text to show for this failure.
func (e *RequestError) UserMessage() string {
	return e.Message
}

// NetworkError is returned when no response was received.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// serverMessage extracts "detail" or "message" from an error body.
func serverMessage(body any) string {
	m, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"detail", "message"} {
		if s := messageText(m[key]); s != "" {
			return s
		}
	}
	return ""
}

// messageText renders a message value. Lists of validation errors
// (e.g. [{"loc": [...], "msg": "..."}]) are joined.
func messageText(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		var parts []string
		for _, item := range v {
			switch item := item.(type) {
			case string:
				parts = append(parts, item)
			case map[string]any:
				if s, ok := item["msg"].(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
