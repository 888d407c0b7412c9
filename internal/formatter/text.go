package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/prismagen/internal/validate"
)

// TextFormatter formats a validation report as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the report, one block per subject with diagnostics
func (f *TextFormatter) Format(r validate.Report) error {
	printed := 0
	for _, s := range r.Subjects {
		if len(s.Diagnostics) == 0 {
			continue
		}
		if printed > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between subjects
		}
		printed++

		_, _ = fmt.Fprintf(f.writer, "%s %s\n", subjectLabel(s.Entity), s.Name)
		for _, d := range s.Diagnostics {
			_, _ = fmt.Fprintf(f.writer, "  %s\n", formatDiagnostic(d))
		}
	}

	errs, warnings := r.Count()
	if printed > 0 {
		_, _ = fmt.Fprintln(f.writer)
	}
	_, err := fmt.Fprintf(f.writer, "%d error(s), %d warning(s)\n", errs, warnings)
	return err
}

func subjectLabel(e validate.Entity) string {
	if e == validate.EntityRelationship {
		return "RELATION"
	}
	return "MODEL"
}

func formatDiagnostic(d validate.Diagnostic) string {
	severity := "ERROR"
	if d.Severity == validate.SeverityWarning {
		severity = "WARN"
	}
	if loc := d.Location.String(); loc != "" {
		return fmt.Sprintf("%s %s: %s", severity, loc, d.Message)
	}
	return fmt.Sprintf("%s %s", severity, d.Message)
}
