package state

import (
	"errors"
	"strings"

	"github.com/tordrt/prismagen/internal/validate"
)

// Sentinel errors returned by Container commands.
var (
	// ErrNotFound indicates the model or relationship id does not exist.
	ErrNotFound = errors.New("state: not found")
	// ErrRejected indicates a commit was blocked by error diagnostics.
	ErrRejected = errors.New("state: commit rejected")
	// ErrDuplicateID indicates an add command reused an existing id.
	ErrDuplicateID = errors.New("state: duplicate id")
	// ErrInvalidIndex indicates a position outside the model list.
	ErrInvalidIndex = errors.New("state: index out of range")
)

// RejectedError carries the diagnostics that blocked a commit.
type RejectedError struct {
	Entity      validate.Entity
	ID          string
	Diagnostics validate.Diagnostics
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	var b strings.Builder
	b.WriteString("state: ")
	b.WriteString(string(e.Entity))
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	b.WriteString(" rejected")
	for i, d := range e.Diagnostics.Errors() {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// Is reports whether the target matches ErrRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
