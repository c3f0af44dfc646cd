package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todoview/internal/task"
)

// IDPrefix marks a task reference as a literal id.
const IDPrefix = "id:"

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num        int    // 1-based position
	ID         string // literal id; for numeric references, the digits themselves
	Positional bool   // true if the reference was all digits
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. "id:<id>" → literal id, never a position
// 2. All digits → position, falling back to an id of the same text
// 3. Anything else → literal id
// Extra arguments are an error.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if id, ok := strings.CutPrefix(arg, IDPrefix); ok {
		if id == "" {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Num: num, ID: arg, Positional: true}, nil
	}

	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ResolveRef finds the task ref points at. Positions count over todos in
// the order the store holds them, completed tasks included.
func ResolveRef(todos []task.Task, ref TaskRef) (task.Task, error) {
	if ref.Positional && ref.Num >= 1 && ref.Num <= len(todos) {
		return todos[ref.Num-1], nil
	}
	if ref.ID != "" {
		for _, t := range todos {
			if t.ID == ref.ID {
				return t, nil
			}
		}
	}
	if ref.Positional {
		return task.Task{}, fmt.Errorf("task number out of range: %d", ref.Num)
	}
	return task.Task{}, fmt.Errorf("task not found: %s", ref.ID)
}
