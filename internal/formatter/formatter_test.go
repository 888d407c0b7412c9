package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/validate"
)

func blogDocument() *schema.Document {
	return &schema.Document{
		Models: blogModels(),
		Relationships: []schema.Relationship{{
			ID: "r1", FromModel: "p", ToModel: "u", Type: schema.OneToMany,
			Config: schema.RelationConfig{
				OnDelete: schema.ActionCascade,
				Fields:   []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}},
			},
		}},
	}
}

func TestMarkdownFormatter(t *testing.T) {
	doc := blogDocument()
	doc.Models[0].Fields[0].Attributes = []schema.FieldAttribute{schema.AttrID}
	doc.Models[0].Attributes = []schema.ModelAttribute{{Name: schema.ModelAttrMap, Value: `"users"`}}

	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(doc))
	out := buf.String()

	assert.Contains(t, out, "# Data Model\n")
	assert.Contains(t, out, "## User\n")
	assert.Contains(t, out, "- **id:** String, PK, required\n")
	assert.Contains(t, out, "- `@@map(\"users\")`\n")
	assert.Contains(t, out, "### References\n\n- authorId → User.id (one-to-many, onDelete: Cascade)\n")
	assert.Contains(t, out, "### Referenced by\n\n- Post.authorId → id (one-to-many, onDelete: Cascade)\n")
}

func TestMarkdownFormatterEmptyModel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(&schema.Document{Models: []schema.Model{{ID: "x", Name: "Empty"}}}))
	assert.Contains(t, buf.String(), "### Fields\n\n_none_\n")
	assert.NotContains(t, buf.String(), "Referenced by")
}

func TestFormatConstraints(t *testing.T) {
	f := schema.Field{
		Name: "name", Type: schema.TypeString, IsRequired: true,
		DefaultValue: schema.StringValue("anon"),
		Attributes:   []schema.FieldAttribute{schema.AttrUnique, schema.AttrDefault, schema.AttrDBText},
	}
	assert.Equal(t, "UNIQUE, required, DEFAULT \"anon\", `@db.Text`", formatConstraints(f))
}

func TestMultiFileFormatterPrisma(t *testing.T) {
	dir := t.TempDir()
	doc := blogDocument()

	f := NewMultiFileFormatter(dir, FormatPrisma, nil)
	require.NoError(t, f.Format(doc))
	files, err := f.Files(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"schema.prisma", "User.prisma", "Post.prisma"}, files)

	head, err := os.ReadFile(filepath.Join(dir, "schema.prisma"))
	require.NoError(t, err)
	assert.Equal(t, preamble, string(head))

	post, err := os.ReadFile(filepath.Join(dir, "Post.prisma"))
	require.NoError(t, err)
	assert.Equal(t, RenderModel(doc.Models[1], doc.Models, doc.Relationships, nil), string(post))
	assert.Contains(t, string(post), "User[] @relation(fields: [authorId], references: [id], onDelete: Cascade)")
}

func TestMultiFileFormatterMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewMultiFileFormatter(dir, FormatMarkdown, nil).Format(blogDocument()))

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.md"))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "- **Post** (references: User)\n- **User**\n")

	user, err := os.ReadFile(filepath.Join(dir, "User.md"))
	require.NoError(t, err)
	assert.Contains(t, string(user), "### Referenced by")
}

func TestMultiFileFormatterRejectsUnsafeNames(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		models  []string
		wantErr string
	}{
		{"duplicate", FormatPrisma, []string{"User", "User"}, "would overwrite"},
		{"case duplicate", FormatPrisma, []string{"User", "user"}, "would overwrite"},
		{"overview prisma", FormatPrisma, []string{"schema"}, "would overwrite the file of the overview"},
		{"overview markdown", FormatMarkdown, []string{"_overview"}, "would overwrite the file of the overview"},
		{"parent dir", FormatPrisma, []string{"../Escaped"}, "cannot be used as a file name"},
		{"separator", FormatMarkdown, []string{"a/b"}, "cannot be used as a file name"},
		{"backslash", FormatPrisma, []string{`a\b`}, "cannot be used as a file name"},
		{"empty", FormatPrisma, []string{""}, "cannot be used as a file name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "out")
			doc := &schema.Document{}
			for i, name := range tt.models {
				doc.Models = append(doc.Models, schema.Model{ID: string(rune('a' + i)), Name: name, Fields: []schema.Field{{Name: "id", Type: schema.TypeInt, IsRequired: true}}})
			}

			err := NewMultiFileFormatter(dir, tt.format, nil).Format(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, statErr := os.Stat(dir)
			assert.True(t, os.IsNotExist(statErr), "nothing is written on rejection")
			_, statErr = os.Stat(filepath.Join(root, "Escaped.prisma"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestMultiFileFormatterUnknownFormat(t *testing.T) {
	err := NewMultiFileFormatter(t.TempDir(), "yaml", nil).Format(blogDocument())
	assert.ErrorContains(t, err, "unsupported multi-file format")
}

func TestTextFormatter(t *testing.T) {
	doc := schema.Document{
		Models: []schema.Model{
			{ID: "u", Name: "User", Fields: []schema.Field{{Name: "id", Type: schema.TypeString}}},
			{ID: "e", Name: "Empty"},
		},
		Relationships: []schema.Relationship{{
			ID: "r1", FromModel: "u", ToModel: "missing", Type: schema.OneToOne,
			Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "id", ReferencedField: "id"}}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(validate.ValidateDocument(doc)))
	out := buf.String()

	assert.NotContains(t, out, "MODEL User")
	assert.Contains(t, out, "MODEL Empty\n  WARN fields: ")
	assert.Contains(t, out, "RELATION User -> missing\n  ERROR ")
	assert.Contains(t, out, "toModel not found")
	assert.Contains(t, out, "1 warning(s)")
}

func TestTextFormatterClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(validate.Report{}))
	assert.Equal(t, "0 error(s), 0 warning(s)\n", buf.String())
}
