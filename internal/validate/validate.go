package validate

import (
	"regexp"

	"github.com/tordrt/prismagen/internal/schema"
)

var (
	modelNamePattern = regexp.MustCompile(`^[A-Z][a-zA-Z]*$`)
	fieldNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z]*$`)
)

// ValidateModel checks a candidate model. models is the committed model set;
// it is only used to detect a name shared with another model and may be nil.
func ValidateModel(model schema.Model, models []schema.Model) Diagnostics {
	var ds Diagnostics

	// name
	nameLoc := At(EntityModel, Key("name"))
	switch {
	case model.Name == "":
		ds = append(ds, errorAt(nameLoc, "Model name is required"))
	case !modelNamePattern.MatchString(model.Name):
		ds = append(ds, errorAt(nameLoc, "Model name must start with a capital letter and contain only letters"))
	default:
		for _, other := range models {
			if other.ID != model.ID && other.Name == model.Name {
				ds = append(ds, errorAt(nameLoc, "Model name %q is already used", model.Name))
				break
			}
		}
	}

	// structure
	if len(model.Fields) == 0 {
		ds = append(ds, warningAt(At(EntityModel, Key("fields")), "Model should have at least one field"))
	}
	seen := make(map[string]bool, len(model.Fields))
	for i, f := range model.Fields {
		if f.Name == "" {
			continue
		}
		if seen[f.Name] {
			ds = append(ds, errorAt(At(EntityModel, Key("fields"), Index(i), Key("name")), "Duplicate field name: %s", f.Name))
		}
		seen[f.Name] = true
	}

	// fields
	for i, f := range model.Fields {
		ds = append(ds, ValidateField(f).within(EntityModel, Key("fields"), Index(i))...)
	}

	// attributes
	seenAttrs := make(map[schema.ModelAttributeName]bool, len(model.Attributes))
	for i, attr := range model.Attributes {
		prefix := []Segment{Key("attributes"), Index(i)}
		ds = append(ds, ValidateModelAttribute(attr).within(EntityModel, prefix...)...)
		if spec, ok := schema.LookupModelAttribute(attr.Name); ok && spec.Singleton && seenAttrs[attr.Name] {
			ds = append(ds, errorAt(At(EntityModel, prefix...), "%s may only be declared once", attr.Name))
		}
		seenAttrs[attr.Name] = true
	}

	return ds
}

// ValidateField checks a single field in isolation
func ValidateField(field schema.Field) Diagnostics {
	var ds Diagnostics

	nameLoc := At(EntityField, Key("name"))
	switch {
	case field.Name == "":
		ds = append(ds, errorAt(nameLoc, "Field name is required"))
	case !fieldNamePattern.MatchString(field.Name):
		ds = append(ds, errorAt(nameLoc, "Field name must start with a lowercase letter and contain only letters"))
	}

	typeLoc := At(EntityField, Key("type"))
	switch {
	case field.Type == "":
		ds = append(ds, errorAt(typeLoc, "Field type is required"))
	case !field.Type.IsValid():
		ds = append(ds, errorAt(typeLoc, "Unknown field type: %s", field.Type))
	}

	if field.DefaultValue.Present() {
		ds = append(ds, validateDefaultValue(field)...)
	}

	ds = append(ds, validateFieldAttributes(field)...)
	return ds
}

func validateFieldAttributes(field schema.Field) Diagnostics {
	var ds Diagnostics

	seen := make(map[schema.FieldAttribute]bool, len(field.Attributes))
	for i, attr := range field.Attributes {
		loc := At(EntityField, Key("attributes"), Index(i))
		if !attr.IsValid() {
			ds = append(ds, errorAt(loc, "Unknown field attribute: %s", attr))
			continue
		}
		if seen[attr] {
			ds = append(ds, errorAt(loc, "Duplicate field attribute: %s", attr))
			continue
		}
		seen[attr] = true

		switch attr {
		case schema.AttrUpdatedAt:
			if field.Type != "" && field.Type != schema.TypeDateTime {
				ds = append(ds, errorAt(loc, "updatedAt can only be used on DateTime fields"))
			}
		case schema.AttrDBText, schema.AttrDBVarChar:
			if field.Type != "" && field.Type != schema.TypeString {
				ds = append(ds, errorAt(loc, "%s can only be used on String fields", attr))
			}
		case schema.AttrDefault:
			if !field.DefaultValue.Present() {
				ds = append(ds, warningAt(loc, "default attribute has no default value"))
			}
		}
	}

	if seen[schema.AttrID] && seen[schema.AttrUnique] {
		ds = append(ds, warningAt(At(EntityField, Key("attributes")), "Field marked as both id and unique; an id is already unique"))
	}

	return ds
}

// ValidateModelAttribute checks a model-level attribute
func ValidateModelAttribute(attr schema.ModelAttribute) Diagnostics {
	var ds Diagnostics

	spec, ok := schema.LookupModelAttribute(attr.Name)
	if !ok {
		ds = append(ds, errorAt(At(EntityAttribute, Key("name")), "Unknown model attribute: %s", attr.Name))
		return ds
	}
	if spec.RequiresValue && attr.Value == "" {
		ds = append(ds, errorAt(At(EntityAttribute, Key("value")), "%s requires a value", attr.Name))
	}
	return ds
}

// ValidateRelationship checks a relationship against the committed model set
func ValidateRelationship(rel schema.Relationship, models []schema.Model) Diagnostics {
	var ds Diagnostics

	from, fromOK := findModel(models, rel.FromModel)
	to, toOK := findModel(models, rel.ToModel)

	if !fromOK {
		ds = append(ds, errorAt(At(EntityRelationship, Key("fromModel")), "fromModel not found"))
	}
	if !toOK {
		ds = append(ds, errorAt(At(EntityRelationship, Key("toModel")), "toModel not found"))
	}
	if fromOK && toOK && from.ID == to.ID {
		ds = append(ds, warningAt(At(EntityRelationship, Key("toModel")), "Self-referential relationship detected"))
	}

	if !rel.Type.IsValid() {
		ds = append(ds, errorAt(At(EntityRelationship, Key("type")), "Unknown relation type: %q", rel.Type))
	}
	if rel.Config.OnDelete != "" && !rel.Config.OnDelete.IsValid() {
		ds = append(ds, errorAt(At(EntityRelationship, Key("onDelete")), "Unknown referential action: %s", rel.Config.OnDelete))
	}
	if rel.Config.OnUpdate != "" && !rel.Config.OnUpdate.IsValid() {
		ds = append(ds, errorAt(At(EntityRelationship, Key("onUpdate")), "Unknown referential action: %s", rel.Config.OnUpdate))
	}

	mappings := rel.Config.Fields
	if len(mappings) == 0 {
		ds = append(ds, errorAt(At(EntityRelationship, Key("fields")), "At least one field mapping is required"))
		return ds
	}

	for i, m := range mappings {
		if fromOK && !from.HasField(m.FieldName) {
			ds = append(ds, errorAt(At(EntityRelationship, Key("fields"), Index(i), Key("fieldName")),
				"Field %q not found in source model", m.FieldName))
		}
		if toOK && !to.HasField(m.ReferencedField) {
			ds = append(ds, errorAt(At(EntityRelationship, Key("fields"), Index(i), Key("referencedField")),
				"Field %q not found in target model", m.ReferencedField))
		}
	}

	seen := make(map[schema.FieldMapping]bool, len(mappings))
	for i, m := range mappings {
		if seen[m] {
			ds = append(ds, errorAt(At(EntityRelationship, Key("fields"), Index(i)), "Duplicate field mapping"))
		}
		seen[m] = true
	}

	if fromOK && toOK {
		ds = append(ds, lintRelationship(rel, from, to)...)
	}

	return ds
}

// lintRelationship reports advisory conflicts between the relation and the
// fields it maps. Only mappings that resolve on both sides are inspected.
func lintRelationship(rel schema.Relationship, from, to schema.Model) Diagnostics {
	var ds Diagnostics

	for i, m := range rel.Config.Fields {
		src, ok := from.Field(m.FieldName)
		if !ok {
			continue
		}
		dst, ok := to.Field(m.ReferencedField)
		if !ok {
			continue
		}
		loc := At(EntityRelationship, Key("fields"), Index(i))

		if src.IsRequired && (rel.Config.OnDelete == schema.ActionSetNull || rel.Config.OnUpdate == schema.ActionSetNull) {
			ds = append(ds, warningAt(loc, "SET_NULL cannot apply to required field %q", src.Name))
		}
		if src.Type != dst.Type {
			ds = append(ds, warningAt(loc, "Field %q (%s) references %q of a different type (%s)", src.Name, src.Type, dst.Name, dst.Type))
		}
		if rel.Type == schema.OneToOne && !src.HasAttribute(schema.AttrUnique) && !src.HasAttribute(schema.AttrID) {
			ds = append(ds, warningAt(loc, "One-to-one relation field %q should be unique", src.Name))
		}
	}

	return ds
}

func findModel(models []schema.Model, id string) (schema.Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return schema.Model{}, false
}
