package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/prismagen/internal/schema"
)

const preamble = `datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider = "prisma-client-js"
}
`

func blogModels() []schema.Model {
	return []schema.Model{
		{ID: "u", Name: "User", Fields: []schema.Field{{Name: "id", Type: schema.TypeString, IsRequired: true}}},
		{ID: "p", Name: "Post", Fields: []schema.Field{
			{Name: "id", Type: schema.TypeString, IsRequired: true},
			{Name: "authorId", Type: schema.TypeString, IsRequired: true},
		}},
	}
}

func TestGenerateEmpty(t *testing.T) {
	assert.Equal(t, preamble, Generate(nil, nil))
}

func TestGenerateOneToMany(t *testing.T) {
	rels := []schema.Relationship{{
		ID: "r1", FromModel: "p", ToModel: "u", Type: schema.OneToMany,
		Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}}},
	}}

	want := preamble + `
model User {
  id String
}

model Post {
  id String
  authorId String

  User[] @relation(fields: [authorId], references: [id])
}
`
	assert.Equal(t, want, Generate(blogModels(), rels))
}

func TestGenerateFieldRendering(t *testing.T) {
	models := []schema.Model{{
		ID:   "u",
		Name: "User",
		Attributes: []schema.ModelAttribute{
			{Name: schema.ModelAttrMap, Value: `"users"`},
			{Name: schema.ModelAttrIgnore},
		},
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInt, IsRequired: true, Attributes: []schema.FieldAttribute{schema.AttrID, schema.AttrDefault}},
			{Name: "email", Type: schema.TypeString, IsRequired: true, Attributes: []schema.FieldAttribute{schema.AttrUnique, schema.AttrDBVarChar}},
			{Name: "nickname", Type: schema.TypeString},
			{Name: "tags", Type: schema.TypeString, IsList: true},
			{Name: "scores", Type: schema.TypeInt, IsList: true, IsRequired: true},
			{Name: "age", Type: schema.TypeInt, IsRequired: true, DefaultValue: schema.NumberValue(18), Attributes: []schema.FieldAttribute{schema.AttrDefault}},
			{Name: "role", Type: schema.TypeString, IsRequired: true, DefaultValue: schema.StringValue("member"), Attributes: []schema.FieldAttribute{schema.AttrDefault}},
			{Name: "active", Type: schema.TypeBoolean, IsRequired: true, DefaultValue: schema.BoolValue(true), Attributes: []schema.FieldAttribute{schema.AttrDefault}},
			{Name: "bio", Type: schema.TypeString, DefaultValue: schema.StringValue("unused")},
		},
	}}

	want := preamble + `
@@map("users")
@@ignore
model User {
  id Int @id @default
  email String @unique @db.VarChar
  nickname String?
  tags String[]
  scores Int[]
  age Int @default(18)
  role String @default("member")
  active Boolean @default(true)
  bio String?
}
`
	assert.Equal(t, want, Generate(models, nil))
}

func TestGenerateReferentialActions(t *testing.T) {
	rels := []schema.Relationship{{
		ID: "r1", FromModel: "p", ToModel: "u", Type: schema.OneToOne,
		Config: schema.RelationConfig{
			OnDelete: schema.ActionCascade,
			OnUpdate: schema.ActionSetNull,
			Fields:   []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}},
		},
	}}

	out := Generate(blogModels(), rels)
	assert.Contains(t, out, "  User @relation(fields: [authorId], references: [id], onDelete: Cascade, onUpdate: SetNull)\n")
}

func TestGenerateManyToMany(t *testing.T) {
	models := []schema.Model{
		{ID: "p", Name: "Post"},
		{ID: "c", Name: "Category", Fields: []schema.Field{{Name: "id", Type: schema.TypeInt, IsRequired: true}}},
	}
	rels := []schema.Relationship{{
		ID: "r-m2m", FromModel: "p", ToModel: "c", Type: schema.ManyToMany,
		Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "id", ReferencedField: "id"}}},
	}}

	want := preamble + `
model Post {
  Category[] @relation(fields: [id], references: [id])
}

model Category {
  id Int

  Post[] @relation("r-m2m")
}
`
	assert.Equal(t, want, Generate(models, rels))
}

func TestGenerateUnresolvedModelRendersID(t *testing.T) {
	rels := []schema.Relationship{{
		ID: "r1", FromModel: "p", ToModel: "gone", Type: schema.OneToOne,
		Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "missing", ReferencedField: "nope"}}},
	}}

	out := Generate(blogModels(), rels)
	assert.Contains(t, out, "  gone @relation(fields: [missing], references: [nope])\n")
}

func TestGenerateRelationTypeByID(t *testing.T) {
	rels := []schema.Relationship{{
		ID: "r1", FromModel: "p", ToModel: "u", Type: schema.OneToOne,
		Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}}},
	}}

	out := GenerateWithOptions(blogModels(), rels, &PrismaOptions{RelationTypeByID: true})
	assert.Contains(t, out, "  u @relation(fields: [authorId], references: [id])\n")
}

func TestGenerateNamedRelationFields(t *testing.T) {
	models := []schema.Model{
		{ID: "u", Name: "User", Fields: []schema.Field{{Name: "id", Type: schema.TypeString, IsRequired: true}}},
		{ID: "p", Name: "BlogPost", Fields: []schema.Field{{Name: "authorId", Type: schema.TypeString, IsRequired: true}}},
	}
	rels := []schema.Relationship{
		{ID: "r1", FromModel: "p", ToModel: "u", Type: schema.OneToOne,
			Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}}}},
		{ID: "r2", FromModel: "u", ToModel: "p", Type: schema.ManyToMany,
			Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "id", ReferencedField: "authorId"}}}},
	}

	out := GenerateWithOptions(models, rels, &PrismaOptions{NameRelationFields: true})
	assert.Contains(t, out, "  user User @relation(fields: [authorId], references: [id])\n")
	assert.Contains(t, out, "  blogPosts BlogPost[] @relation(fields: [id], references: [authorId])\n")
	assert.Contains(t, out, "  users User[] @relation(\"r2\")\n")
}

func TestGenerateCustomPreamble(t *testing.T) {
	out := GenerateWithOptions(nil, nil, &PrismaOptions{Provider: "sqlite", URLEnv: "DB", ClientProvider: "prisma-client-go"})
	assert.Contains(t, out, `provider = "sqlite"`)
	assert.Contains(t, out, `url      = env("DB")`)
	assert.Contains(t, out, `provider = "prisma-client-go"`)
}

func TestGenerateIsDeterministic(t *testing.T) {
	models := blogModels()
	rels := []schema.Relationship{{
		ID: "r1", FromModel: "p", ToModel: "u", Type: schema.ManyToMany,
		Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}}},
	}}

	first := Generate(models, rels)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Generate(models, rels))
	}
}

func TestGeneratePreservesModelOrder(t *testing.T) {
	models := blogModels()
	rels := []schema.Relationship{{
		ID: "r1", FromModel: "p", ToModel: "u", Type: schema.OneToMany,
		Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "authorId", ReferencedField: "id"}}},
	}}

	forward := Generate(models, rels)
	reversed := Generate([]schema.Model{models[1], models[0]}, rels)

	blocks := func(s string) []string {
		parts := strings.Split(s, "\n\nmodel ")
		for i := range parts {
			parts[i] = strings.TrimSuffix(parts[i], "\n")
		}
		return parts
	}
	fb, rb := blocks(forward), blocks(reversed)
	require.Len(t, fb, 3)
	require.Len(t, rb, 3)
	assert.Equal(t, fb[0], rb[0])
	assert.Equal(t, fb[1], rb[2])
	assert.Equal(t, fb[2], rb[1])
}

func TestRelationFieldCount(t *testing.T) {
	models := []schema.Model{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}
	rels := []schema.Relationship{
		{ID: "1", FromModel: "a", ToModel: "b", Type: schema.OneToMany,
			Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "x", ReferencedField: "y"}, {FieldName: "z", ReferencedField: "w"}}}},
		{ID: "2", FromModel: "b", ToModel: "a", Type: schema.ManyToMany,
			Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "x", ReferencedField: "y"}}}},
		{ID: "3", FromModel: "b", ToModel: "a", Type: schema.OneToOne,
			Config: schema.RelationConfig{Fields: []schema.FieldMapping{{FieldName: "x", ReferencedField: "y"}}}},
	}

	// A: two outgoing mappings + one incoming many-to-many
	assert.Len(t, relationFieldLines("a", models, rels, PrismaOptions{}), 3)
	// B: two outgoing relationships with one mapping each, no incoming many-to-many
	assert.Len(t, relationFieldLines("b", models, rels, PrismaOptions{}), 2)
}

func TestPrismaFormatter(t *testing.T) {
	var buf bytes.Buffer
	doc := &schema.Document{Models: blogModels()}
	require.NoError(t, NewPrismaFormatter(&buf, nil).Format(doc))
	assert.Equal(t, Generate(doc.Models, nil), buf.String())
}
