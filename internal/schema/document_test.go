package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() Document {
	return Document{
		Models: []Model{
			{ID: "u", Name: "User", Fields: []Field{{Name: "id", Type: TypeString, IsRequired: true}}},
			{ID: "p", Name: "Post", Fields: []Field{{Name: "id", Type: TypeString, IsRequired: true}}},
			{ID: "t", Name: "Tag"},
		},
		Relationships: []Relationship{
			{ID: "r1", FromModel: "p", ToModel: "u", Type: OneToMany},
			{ID: "r2", FromModel: "t", ToModel: "p", Type: ManyToMany},
			{ID: "r3", FromModel: "p", ToModel: "p", Type: OneToOne},
		},
	}
}

func TestDeleteModelCascades(t *testing.T) {
	doc := testDocument()

	out, removed, ok := doc.DeleteModel("p")
	require.True(t, ok)

	assert.Len(t, out.Models, 2)
	assert.Empty(t, out.Relationships)
	assert.Len(t, removed, 3)
	for _, r := range out.Relationships {
		assert.NotEqual(t, "p", r.FromModel)
		assert.NotEqual(t, "p", r.ToModel)
	}

	// receiver untouched
	assert.Len(t, doc.Models, 3)
	assert.Len(t, doc.Relationships, 3)
}

func TestDeleteModelKeepsUnrelated(t *testing.T) {
	out, removed, ok := testDocument().DeleteModel("u")
	require.True(t, ok)

	assert.Len(t, removed, 1)
	assert.Equal(t, "r1", removed[0].ID)
	require.Len(t, out.Relationships, 2)
	assert.Equal(t, "r2", out.Relationships[0].ID)
	assert.Equal(t, "r3", out.Relationships[1].ID)
}

func TestDeleteModelMissing(t *testing.T) {
	out, removed, ok := testDocument().DeleteModel("nope")
	assert.False(t, ok)
	assert.Empty(t, removed)
	assert.Len(t, out.Models, 3)
}

func TestUpdateModelKeepsID(t *testing.T) {
	doc := testDocument()
	out, ok := doc.UpdateModel("u", Model{ID: "other", Name: "Account"})
	require.True(t, ok)

	m, found := out.Model("u")
	require.True(t, found)
	assert.Equal(t, "Account", m.Name)
	assert.Equal(t, "User", doc.ModelName("u"))
}

func TestMoveModel(t *testing.T) {
	out, ok := testDocument().MoveModel("t", 0)
	require.True(t, ok)

	var names []string
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Tag", "User", "Post"}, names)

	_, ok = testDocument().MoveModel("t", 3)
	assert.False(t, ok)
}

func TestRelationshipCommands(t *testing.T) {
	doc := testDocument()

	doc = doc.AddRelationship(Relationship{ID: "r4", FromModel: "u", ToModel: "t", Type: OneToOne})
	require.Len(t, doc.Relationships, 4)

	doc, ok := doc.UpdateRelationship("r4", Relationship{FromModel: "t", ToModel: "u", Type: OneToMany})
	require.True(t, ok)
	r, _ := doc.Relationship("r4")
	assert.Equal(t, "t", r.FromModel)
	assert.Equal(t, "r4", r.ID)

	doc, ok = doc.DeleteRelationship("r4")
	require.True(t, ok)
	assert.Len(t, doc.Relationships, 3)

	_, ok = doc.DeleteRelationship("r4")
	assert.False(t, ok)
}

func TestFieldOrdering(t *testing.T) {
	m := Model{Name: "User", Fields: []Field{{Name: "a"}, {Name: "b"}, {Name: "c"}}}

	moved, ok := m.MoveField(0, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c", "a"}, fieldNames(moved))

	inserted := m.InsertField(1, Field{Name: "x"})
	assert.Equal(t, []string{"a", "x", "b", "c"}, fieldNames(inserted))

	appended := m.InsertField(99, Field{Name: "z"})
	assert.Equal(t, []string{"a", "b", "c", "z"}, fieldNames(appended))

	removed, ok := m.RemoveField(1)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, fieldNames(removed))

	replaced, ok := m.ReplaceField(2, Field{Name: "y"})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "y"}, fieldNames(replaced))

	_, ok = m.RemoveField(3)
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b", "c"}, fieldNames(m))
}

func TestCloneIsDeep(t *testing.T) {
	doc := Document{
		Models: []Model{{ID: "u", Name: "User", Fields: []Field{{Name: "id", Attributes: []FieldAttribute{AttrID}}}}},
	}
	c := doc.Clone()
	c.Models[0].Fields[0].Attributes[0] = AttrUnique
	assert.Equal(t, AttrID, doc.Models[0].Fields[0].Attributes[0])
}

func fieldNames(m Model) []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	return names
}
