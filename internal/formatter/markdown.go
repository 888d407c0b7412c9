package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/prismagen/internal/schema"
)

// MarkdownFormatter formats a document as data-model documentation
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the document in markdown format
func (f *MarkdownFormatter) Format(doc *schema.Document) error {
	_, _ = fmt.Fprintln(f.writer, "# Data Model")
	_, _ = fmt.Fprintln(f.writer)

	for _, m := range doc.Models {
		f.FormatModel(m, doc)
	}
	return nil
}

// FormatModel formats a single model (exported for use by the multi-file formatter)
func (f *MarkdownFormatter) FormatModel(m schema.Model, doc *schema.Document) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", m.Name)

	_, _ = fmt.Fprintln(f.writer, "### Fields")
	_, _ = fmt.Fprintln(f.writer)
	if len(m.Fields) == 0 {
		_, _ = fmt.Fprintln(f.writer, "_none_")
	}
	for _, field := range m.Fields {
		constraintStr := formatConstraints(field)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", field.Name, formatFieldType(field), constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", field.Name, formatFieldType(field))
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(m.Attributes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Attributes")
		_, _ = fmt.Fprintln(f.writer)
		for _, attr := range m.Attributes {
			_, _ = fmt.Fprintf(f.writer, "- `%s`\n", formatModelAttribute(attr))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	var outgoing []schema.Relationship
	for _, rel := range doc.Relationships {
		if rel.FromModel == m.ID {
			outgoing = append(outgoing, rel)
		}
	}
	if len(outgoing) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range outgoing {
			target := doc.ModelName(rel.ToModel)
			for _, fm := range rel.Config.Fields {
				_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s)\n",
					fm.FieldName, target, fm.ReferencedField, describeRelation(rel))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	incoming := findIncomingRelations(m.ID, doc)
	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range incoming {
			_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s (%s)\n",
				rel.SourceModel, rel.SourceField, rel.TargetField, rel.Description)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

// IncomingRelation represents a relationship pointing to a model
type IncomingRelation struct {
	SourceModel string
	SourceField string
	TargetField string
	Description string
}

// findIncomingRelations finds all mappings whose relationship targets modelID
func findIncomingRelations(modelID string, doc *schema.Document) []IncomingRelation {
	var incoming []IncomingRelation
	for _, rel := range doc.Relationships {
		if rel.ToModel != modelID {
			continue
		}
		source := doc.ModelName(rel.FromModel)
		for _, fm := range rel.Config.Fields {
			incoming = append(incoming, IncomingRelation{
				SourceModel: source,
				SourceField: fm.FieldName,
				TargetField: fm.ReferencedField,
				Description: describeRelation(rel),
			})
		}
	}
	return incoming
}

func formatConstraints(field schema.Field) string {
	var constraints []string

	if field.HasAttribute(schema.AttrID) {
		constraints = append(constraints, "PK")
	}
	if field.HasAttribute(schema.AttrUnique) {
		constraints = append(constraints, "UNIQUE")
	}
	if field.IsRequired && !field.IsList {
		constraints = append(constraints, "required")
	}
	if field.DefaultValue.Present() {
		constraints = append(constraints, "DEFAULT "+defaultLiteral(field))
	}
	for _, attr := range field.Attributes {
		switch attr {
		case schema.AttrID, schema.AttrUnique, schema.AttrDefault:
		default:
			constraints = append(constraints, "`"+formatFieldAttribute(field, attr)+"`")
		}
	}

	return strings.Join(constraints, ", ")
}

// describeRelation renders the cardinality plus any referential actions
func describeRelation(rel schema.Relationship) string {
	parts := []string{strings.ToLower(strings.ReplaceAll(string(rel.Type), "_", "-"))}
	if rel.Config.OnDelete != "" {
		parts = append(parts, "onDelete: "+rel.Config.OnDelete.Keyword())
	}
	if rel.Config.OnUpdate != "" {
		parts = append(parts, "onUpdate: "+rel.Config.OnUpdate.Keyword())
	}
	return strings.Join(parts, ", ")
}
