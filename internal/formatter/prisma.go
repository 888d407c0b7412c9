package formatter

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tordrt/prismagen/internal/schema"
)

// Default preamble constants
const (
	DefaultProvider       = "postgresql"
	DefaultURLEnv         = "DATABASE_URL"
	DefaultClientProvider = "prisma-client-js"
)

// PrismaOptions configures schema document generation.
// A nil *PrismaOptions uses the defaults.
type PrismaOptions struct {
	// Provider is the datasource provider (default: postgresql)
	Provider string
	// URLEnv is the environment variable holding the connection URL (default: DATABASE_URL)
	URLEnv string
	// ClientProvider is the generator provider (default: prisma-client-js)
	ClientProvider string
	// RelationTypeByID renders synthesized relation types with the opposing
	// model's id instead of its name
	RelationTypeByID bool
	// NameRelationFields prefixes synthesized relation lines with a field
	// name derived from the opposing model
	NameRelationFields bool
}

func (o *PrismaOptions) withDefaults() PrismaOptions {
	var out PrismaOptions
	if o != nil {
		out = *o
	}
	if out.Provider == "" {
		out.Provider = DefaultProvider
	}
	if out.URLEnv == "" {
		out.URLEnv = DefaultURLEnv
	}
	if out.ClientProvider == "" {
		out.ClientProvider = DefaultClientProvider
	}
	return out
}

// Generate compiles models and relationships into a schema document using
// the default options. It never fails: input that validation would reject
// is still rendered verbatim.
func Generate(models []schema.Model, relationships []schema.Relationship) string {
	return GenerateWithOptions(models, relationships, nil)
}

// GenerateWithOptions compiles models and relationships into a schema document
func GenerateWithOptions(models []schema.Model, relationships []schema.Relationship, opts *PrismaOptions) string {
	blocks := []string{RenderPreamble(opts)}
	for _, m := range models {
		blocks = append(blocks, RenderModel(m, models, relationships, opts))
	}
	return strings.Join(blocks, "\n")
}

// RenderPreamble renders the datasource and generator blocks
func RenderPreamble(opts *PrismaOptions) string {
	o := opts.withDefaults()
	var b strings.Builder
	b.WriteString("datasource db {\n")
	b.WriteString("  provider = " + strconv.Quote(o.Provider) + "\n")
	b.WriteString("  url      = env(" + strconv.Quote(o.URLEnv) + ")\n")
	b.WriteString("}\n")
	b.WriteString("\n")
	b.WriteString("generator client {\n")
	b.WriteString("  provider = " + strconv.Quote(o.ClientProvider) + "\n")
	b.WriteString("}\n")
	return b.String()
}

// RenderModel renders one model block, including the relation fields
// synthesized from relationships. models is used to resolve relation types.
func RenderModel(m schema.Model, models []schema.Model, relationships []schema.Relationship, opts *PrismaOptions) string {
	o := opts.withDefaults()
	var b strings.Builder

	for _, attr := range m.Attributes {
		b.WriteString(formatModelAttribute(attr))
		b.WriteByte('\n')
	}

	b.WriteString("model " + m.Name + " {\n")

	for _, f := range m.Fields {
		b.WriteString("  " + f.Name + " " + formatFieldType(f) + formatFieldAttributes(f) + "\n")
	}

	relationFields := relationFieldLines(m.ID, models, relationships, o)
	if len(relationFields) > 0 {
		if len(m.Fields) > 0 {
			b.WriteByte('\n')
		}
		for _, line := range relationFields {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// PrismaFormatter writes a schema document
type PrismaFormatter struct {
	writer io.Writer
	opts   *PrismaOptions
}

// NewPrismaFormatter creates a new schema document formatter
func NewPrismaFormatter(w io.Writer, opts *PrismaOptions) *PrismaFormatter {
	return &PrismaFormatter{writer: w, opts: opts}
}

// Format writes the schema document for doc
func (f *PrismaFormatter) Format(doc *schema.Document) error {
	_, err := io.WriteString(f.writer, GenerateWithOptions(doc.Models, doc.Relationships, f.opts))
	return err
}

func formatModelAttribute(attr schema.ModelAttribute) string {
	if attr.Value != "" {
		return string(attr.Name) + "(" + attr.Value + ")"
	}
	return string(attr.Name)
}

// formatFieldType appends [] for lists, otherwise ? unless required
func formatFieldType(f schema.Field) string {
	t := string(f.Type)
	if f.IsList {
		return t + "[]"
	}
	if f.IsRequired {
		return t
	}
	return t + "?"
}

func formatFieldAttributes(f schema.Field) string {
	if len(f.Attributes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(f.Attributes))
	for _, attr := range f.Attributes {
		parts = append(parts, formatFieldAttribute(f, attr))
	}
	return " " + strings.Join(parts, " ")
}

func formatFieldAttribute(f schema.Field, attr schema.FieldAttribute) string {
	token := string(attr)
	if attr == schema.AttrDefault && f.DefaultValue.Present() {
		return "@default(" + defaultLiteral(f) + ")"
	}
	if strings.HasPrefix(token, "@") {
		return token
	}
	return "@" + token
}

func defaultLiteral(f schema.Field) string {
	switch f.Type {
	case schema.TypeString, schema.TypeDateTime, schema.TypeJSON, schema.TypeBytes:
		return strconv.Quote(f.DefaultValue.String())
	}
	return f.DefaultValue.String()
}

// relationFieldLines synthesizes the relation fields of the model with the
// given id: one line per mapping of every outgoing relationship, then one
// back-reference per incoming many-to-many relationship.
func relationFieldLines(modelID string, models []schema.Model, relationships []schema.Relationship, o PrismaOptions) []string {
	var lines []string

	for _, rel := range relationships {
		if rel.FromModel != modelID {
			continue
		}
		target := relationTypeName(rel.ToModel, models, o)
		typeExpr := target
		if rel.Type.IsList() {
			typeExpr += "[]"
		}
		for _, field := range rel.Config.Fields {
			var attr strings.Builder
			attr.WriteString("@relation(fields: [" + field.FieldName + "], references: [" + field.ReferencedField + "]")
			if rel.Config.OnDelete != "" {
				attr.WriteString(", onDelete: " + rel.Config.OnDelete.Keyword())
			}
			if rel.Config.OnUpdate != "" {
				attr.WriteString(", onUpdate: " + rel.Config.OnUpdate.Keyword())
			}
			attr.WriteString(")")
			lines = append(lines, relationLine(target, typeExpr, rel.Type.IsList(), attr.String(), o))
		}
	}

	for _, rel := range relationships {
		if rel.ToModel != modelID || rel.Type != schema.ManyToMany {
			continue
		}
		source := relationTypeName(rel.FromModel, models, o)
		lines = append(lines, relationLine(source, source+"[]", true, "@relation("+strconv.Quote(rel.ID)+")", o))
	}

	return lines
}

func relationLine(typeName, typeExpr string, list bool, attr string, o PrismaOptions) string {
	line := typeExpr + " " + attr
	if !o.NameRelationFields {
		return line
	}
	name := inflect.CamelizeDownFirst(typeName)
	if list {
		name = inflect.Pluralize(name)
	}
	return name + " " + line
}

// relationTypeName resolves the model id to its name. Unresolvable ids are
// rendered raw.
func relationTypeName(id string, models []schema.Model, o PrismaOptions) string {
	if o.RelationTypeByID {
		return id
	}
	for _, m := range models {
		if m.ID == id {
			return m.Name
		}
	}
	return id
}
