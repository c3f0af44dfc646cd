package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Field names a canonical task field.
type Field int

const (
	FieldID Field = iota
	FieldTitle
	FieldDescription
	FieldCompleted
)

func (f Field) String() string {
	switch f {
	case FieldID:
		return "id"
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldCompleted:
		return "completed"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Aliases lists, per canonical field, the backend keys that may carry it,
// in priority order.
var Aliases = map[Field][]string{
	FieldID:          {"id", "task_id", "uuid", "_id"},
	FieldTitle:       {"title", "name"},
	FieldDescription: {"description"},
	FieldCompleted:   {"completed", "is_done", "done"},
}

// ProvisionalPrefix prefixes identifiers synthesized for tasks the backend
// returned without one.
const ProvisionalPrefix = "local-"

// ErrUnsupportedShape is returned when a field holds a value that cannot be
// mapped onto the canonical record.
var ErrUnsupportedShape = errors.New("unsupported task shape")

// ShapeError reports which key held an unsupported value.
type ShapeError struct {
	Field Field
	Key   string
	Value any
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unsupported value for %s (key %q): %T", e.Field, e.Key, e.Value)
}

func (e *ShapeError) Unwrap() error { return ErrUnsupportedShape }

func newID() string {
	return ProvisionalPrefix + uuid.NewString()
}

// Lookup returns the value of the first alias of f present in raw.
// A key holding JSON null counts as missing.
func Lookup(raw RawTask, f Field) (key string, value any, ok bool) {
	for _, k := range Aliases[f] {
		v, found := raw[k]
		if found && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

// Normalize maps a backend task onto the canonical record.
func Normalize(raw RawTask) (Task, error) {
	var t Task

	id, ok, err := lookupID(raw)
	if err != nil {
		return Task{}, err
	}
	if ok {
		t.ID = id
	} else {
		t.ID = newID()
		t.Provisional = true
	}

	if t.Title, _, err = lookupString(raw, FieldTitle); err != nil {
		return Task{}, err
	}
	if t.Description, _, err = lookupString(raw, FieldDescription); err != nil {
		return Task{}, err
	}
	if _, v, ok := Lookup(raw, FieldCompleted); ok {
		t.Completed = CompletedFrom(v)
	}
	return t, nil
}

// NormalizeCreated normalizes the response to a create request. Title and
// description the server did not echo fall back to the submitted draft.
func NormalizeCreated(raw RawTask, d Draft) (Task, error) {
	t, err := Normalize(raw)
	if err != nil {
		return Task{}, err
	}
	if _, ok, _ := lookupString(raw, FieldTitle); !ok {
		t.Title = d.Title
	}
	if _, ok, _ := lookupString(raw, FieldDescription); !ok {
		t.Description = d.Description
	}
	return t, nil
}

// MergeUpdated folds the response to an update request into current. Title
// and description take the server echo, then the sent payload. Other fields
// are left alone.
func MergeUpdated(current Task, raw RawTask, sent Payload) (Task, error) {
	title, ok, err := lookupString(raw, FieldTitle)
	if err != nil {
		return current, err
	}
	if !ok {
		title = sent.Title
	}
	desc, ok, err := lookupString(raw, FieldDescription)
	if err != nil {
		return current, err
	}
	if !ok {
		desc = sent.Description
	}
	current.Title = title
	current.Description = desc
	return current, nil
}

// CompletedOr returns the completion flag echoed in raw, or fallback when the
// server omitted it.
func CompletedOr(raw RawTask, fallback bool) bool {
	if _, v, ok := Lookup(raw, FieldCompleted); ok {
		return CompletedFrom(v)
	}
	return fallback
}

// CompletedFrom coerces a backend completion value to a strict bool.
func CompletedFrom(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		return v != ""
	default:
		return true
	}
}

// lookupID skips empty identifiers so a blank "id" does not hide a usable
// "task_id".
func lookupID(raw RawTask) (string, bool, error) {
	for _, key := range Aliases[FieldID] {
		v := raw[key]
		if v == nil {
			continue
		}
		if m, isMap := v.(map[string]any); isMap {
			if oid, isStr := m["$oid"].(string); isStr && oid != "" {
				return oid, true, nil
			}
			return "", false, &ShapeError{Field: FieldID, Key: key, Value: v}
		}
		s, err := scalarString(FieldID, key, v)
		if err != nil {
			return "", false, err
		}
		if strings.TrimSpace(s) != "" {
			return s, true, nil
		}
	}
	return "", false, nil
}

func lookupString(raw RawTask, f Field) (string, bool, error) {
	key, v, ok := Lookup(raw, f)
	if !ok {
		return "", false, nil
	}
	s, err := scalarString(f, key, v)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func scalarString(f Field, key string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", &ShapeError{Field: f, Key: key, Value: v}
	}
}
