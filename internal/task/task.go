// Package task defines the canonical task record and the normalization of
// backend task shapes into it.
package task

// Task is the canonical, UI-facing task record.
type Task struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Completed   bool   `json:"completed" yaml:"completed"`

	// Provisional is set when the backend supplied no identifier and ID was
	// synthesized locally. Writes addressed to such a record cannot reach the
	// backend.
	Provisional bool `json:"provisional,omitempty" yaml:"provisional,omitempty"`
}

// RawTask is a backend task as received. Its shape is not guaranteed.
// Numbers are held as json.Number.
type RawTask map[string]any

// Draft is the body of a create request.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Payload is the full-replace body of an update request.
type Payload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Changes is a partial update. Nil fields keep the current value.
type Changes struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Apply overlays c onto t and returns the complete payload the backend needs.
func (c Changes) Apply(t Task) Payload {
	p := Payload{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Completed != nil {
		p.Completed = *c.Completed
	}
	return p
}

// IsEmpty reports whether c changes nothing.
func (c Changes) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Completed == nil
}

// String returns a pointer to s, for building Changes.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building Changes.
func Bool(b bool) *bool { return &b }
