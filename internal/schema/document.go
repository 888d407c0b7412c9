package schema

import "slices"

// Model returns the model with the given id
func (d Document) Model(id string) (Model, bool) {
	for _, m := range d.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Relationship returns the relationship with the given id
func (d Document) Relationship(id string) (Relationship, bool) {
	for _, r := range d.Relationships {
		if r.ID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

// ModelName resolves a model id to its name, falling back to the raw id
func (d Document) ModelName(id string) string {
	if m, ok := d.Model(id); ok {
		return m.Name
	}
	return id
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	out := Document{
		Models:        make([]Model, len(d.Models)),
		Relationships: make([]Relationship, len(d.Relationships)),
	}
	for i, m := range d.Models {
		out.Models[i] = m.Clone()
	}
	for i, r := range d.Relationships {
		out.Relationships[i] = r.Clone()
	}
	return out
}

// AddModel appends m to the document
func (d Document) AddModel(m Model) Document {
	out := d.Clone()
	out.Models = append(out.Models, m.Clone())
	return out
}

// UpdateModel replaces the model with the given id, keeping the id.
// The second result is false when no such model exists.
func (d Document) UpdateModel(id string, m Model) (Document, bool) {
	out := d.Clone()
	for i := range out.Models {
		if out.Models[i].ID == id {
			m = m.Clone()
			m.ID = id
			out.Models[i] = m
			return out, true
		}
	}
	return out, false
}

// DeleteModel removes the model with the given id and every relationship
// that references it from either side. It returns the removed relationships.
func (d Document) DeleteModel(id string) (Document, []Relationship, bool) {
	out := d.Clone()
	found := false
	models := out.Models[:0]
	for _, m := range out.Models {
		if m.ID == id {
			found = true
			continue
		}
		models = append(models, m)
	}
	out.Models = models

	var removed []Relationship
	rels := out.Relationships[:0]
	for _, r := range out.Relationships {
		if r.FromModel == id || r.ToModel == id {
			removed = append(removed, r)
			continue
		}
		rels = append(rels, r)
	}
	out.Relationships = rels
	return out, removed, found
}

// MoveModel moves the model with the given id to position to.
// Output order of the generated document follows model order.
func (d Document) MoveModel(id string, to int) (Document, bool) {
	out := d.Clone()
	from := slices.IndexFunc(out.Models, func(m Model) bool { return m.ID == id })
	if from < 0 || to < 0 || to >= len(out.Models) {
		return out, false
	}
	m := out.Models[from]
	out.Models = slices.Delete(out.Models, from, from+1)
	out.Models = slices.Insert(out.Models, to, m)
	return out, true
}

// AddRelationship appends r to the document
func (d Document) AddRelationship(r Relationship) Document {
	out := d.Clone()
	out.Relationships = append(out.Relationships, r.Clone())
	return out
}

// UpdateRelationship replaces the relationship with the given id, keeping the id
func (d Document) UpdateRelationship(id string, r Relationship) (Document, bool) {
	out := d.Clone()
	for i := range out.Relationships {
		if out.Relationships[i].ID == id {
			r = r.Clone()
			r.ID = id
			out.Relationships[i] = r
			return out, true
		}
	}
	return out, false
}

// DeleteRelationship removes the relationship with the given id
func (d Document) DeleteRelationship(id string) (Document, bool) {
	out := d.Clone()
	i := slices.IndexFunc(out.Relationships, func(r Relationship) bool { return r.ID == id })
	if i < 0 {
		return out, false
	}
	out.Relationships = slices.Delete(out.Relationships, i, i+1)
	return out, true
}

// Clone returns a deep copy of the model
func (m Model) Clone() Model {
	out := m
	out.Fields = make([]Field, len(m.Fields))
	for i, f := range m.Fields {
		out.Fields[i] = f.Clone()
	}
	out.Attributes = slices.Clone(m.Attributes)
	return out
}

// Field returns the field with the given name
func (m Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether the model has a field with the given name
func (m Model) HasField(name string) bool {
	_, ok := m.Field(name)
	return ok
}

// InsertField inserts f at index i. An out of range index appends.
func (m Model) InsertField(i int, f Field) Model {
	out := m.Clone()
	if i < 0 || i > len(out.Fields) {
		i = len(out.Fields)
	}
	out.Fields = slices.Insert(out.Fields, i, f.Clone())
	return out
}

// ReplaceField replaces the field at index i
func (m Model) ReplaceField(i int, f Field) (Model, bool) {
	out := m.Clone()
	if i < 0 || i >= len(out.Fields) {
		return out, false
	}
	out.Fields[i] = f.Clone()
	return out, true
}

// RemoveField removes the field at index i
func (m Model) RemoveField(i int) (Model, bool) {
	out := m.Clone()
	if i < 0 || i >= len(out.Fields) {
		return out, false
	}
	out.Fields = slices.Delete(out.Fields, i, i+1)
	return out, true
}

// MoveField moves the field at index from to index to
func (m Model) MoveField(from, to int) (Model, bool) {
	out := m.Clone()
	if from < 0 || from >= len(out.Fields) || to < 0 || to >= len(out.Fields) {
		return out, false
	}
	f := out.Fields[from]
	out.Fields = slices.Delete(out.Fields, from, from+1)
	out.Fields = slices.Insert(out.Fields, to, f)
	return out, true
}

// Clone returns a deep copy of the field
func (f Field) Clone() Field {
	out := f
	out.Attributes = slices.Clone(f.Attributes)
	return out
}

// HasAttribute reports whether the field carries attribute a
func (f Field) HasAttribute(a FieldAttribute) bool {
	return slices.Contains(f.Attributes, a)
}

// Clone returns a deep copy of the relationship
func (r Relationship) Clone() Relationship {
	out := r
	out.Config.Fields = slices.Clone(r.Config.Fields)
	return out
}
