// Package validate checks models, fields and relationships for structural
// and semantic correctness. Every check is pure and returns Diagnostics in a
// stable order: name, structure, fields, attributes.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Severity classifies a diagnostic. Errors block a commit, warnings never do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Entity is the kind of value a location path starts from
type Entity string

const (
	EntityModel        Entity = "model"
	EntityField        Entity = "field"
	EntityAttribute    Entity = "attribute"
	EntityRelationship Entity = "relationship"
)

// Segment is one step of a location path: a Key or an Index
type Segment interface {
	segment()
}

// Key names a property, e.g. "name" or "defaultValue"
type Key string

// Index addresses an element of a sequence
type Index int

func (Key) segment()   {}
func (Index) segment() {}

// Location points into the entity a diagnostic was produced for
type Location struct {
	Entity Entity    `json:"entity"`
	Path   []Segment `json:"path"`
}

// At builds a location from path segments
func At(entity Entity, path ...Segment) *Location {
	return &Location{Entity: entity, Path: path}
}

// String renders the path, e.g. fields[0].defaultValue
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	var b strings.Builder
	for _, s := range l.Path {
		switch v := s.(type) {
		case Key:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(string(v))
		case Index:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(int(v)))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// Diagnostic is a single validation finding
type Diagnostic struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Location *Location `json:"location,omitempty"`
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	if d.Location == nil || len(d.Location.Path) == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Location, d.Message)
}

// Diagnostics is an ordered list of findings
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic blocks a commit
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error diagnostics
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(SeverityError)
}

// Warnings returns the warning diagnostics
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

// Err joins the error diagnostics into one error, or returns nil
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds.Errors() {
		errs = append(errs, d)
	}
	return errors.Join(errs...)
}

func (ds Diagnostics) filter(s Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// within re-roots every diagnostic location under prefix
func (ds Diagnostics) within(entity Entity, prefix ...Segment) Diagnostics {
	out := make(Diagnostics, 0, len(ds))
	for _, d := range ds {
		path := append([]Segment{}, prefix...)
		if d.Location != nil {
			path = append(path, d.Location.Path...)
		}
		d.Location = At(entity, path...)
		out = append(out, d)
	}
	return out
}

func errorAt(loc *Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...), Location: loc}
}

func warningAt(loc *Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Location: loc}
}
