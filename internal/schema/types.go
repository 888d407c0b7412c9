package schema

// Document is the unit of persistence: every model and relationship of a data model
type Document struct {
	Models        []Model        `json:"models" yaml:"models" msgpack:"models"`
	Relationships []Relationship `json:"relationships" yaml:"relationships" msgpack:"relationships"`
}

// Model represents an entity definition, analogous to a database table
type Model struct {
	ID         string           `json:"id" yaml:"id" msgpack:"id"`
	Name       string           `json:"name" yaml:"name" msgpack:"name"`
	Fields     []Field          `json:"fields" yaml:"fields" msgpack:"fields"`
	Attributes []ModelAttribute `json:"attributes" yaml:"attributes" msgpack:"attributes"`
}

// Field represents a typed attribute of a model, analogous to a column
type Field struct {
	Name         string           `json:"name" yaml:"name" msgpack:"name"`
	Type         ScalarType       `json:"type" yaml:"type" msgpack:"type"`
	IsRequired   bool             `json:"isRequired" yaml:"isRequired" msgpack:"isRequired"`
	IsList       bool             `json:"isList" yaml:"isList" msgpack:"isList"`
	Attributes   []FieldAttribute `json:"attributes" yaml:"attributes" msgpack:"attributes"`
	DefaultValue Value            `json:"defaultValue" yaml:"defaultValue,omitempty" msgpack:"defaultValue"`
}

// ModelAttribute represents a model-level modifier such as @@map or @@index
type ModelAttribute struct {
	Name  ModelAttributeName `json:"name" yaml:"name" msgpack:"name"`
	Value string             `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value"`
}

// Relationship is a directed association between two models.
// FromModel owns the scalar fields named in Config.Fields[].FieldName,
// ToModel owns the fields named in ReferencedField.
type Relationship struct {
	ID        string         `json:"id" yaml:"id" msgpack:"id"`
	FromModel string         `json:"fromModel" yaml:"fromModel" msgpack:"fromModel"`
	ToModel   string         `json:"toModel" yaml:"toModel" msgpack:"toModel"`
	Type      RelationType   `json:"type" yaml:"type" msgpack:"type"`
	Config    RelationConfig `json:"config" yaml:"config" msgpack:"config"`
}

// RelationConfig holds the referential actions and field mappings of a relationship
type RelationConfig struct {
	OnDelete ReferentialAction `json:"onDelete,omitempty" yaml:"onDelete,omitempty" msgpack:"onDelete"`
	OnUpdate ReferentialAction `json:"onUpdate,omitempty" yaml:"onUpdate,omitempty" msgpack:"onUpdate"`
	Fields   []FieldMapping    `json:"fields" yaml:"fields" msgpack:"fields"`
}

// FieldMapping pairs a field of the source model with a field of the target model
type FieldMapping struct {
	FieldName       string `json:"fieldName" yaml:"fieldName" msgpack:"fieldName"`
	ReferencedField string `json:"referencedField" yaml:"referencedField" msgpack:"referencedField"`
}

// ScalarType is one of the scalar types a field can have
type ScalarType string

const (
	TypeString   ScalarType = "String"
	TypeInt      ScalarType = "Int"
	TypeFloat    ScalarType = "Float"
	TypeBoolean  ScalarType = "Boolean"
	TypeDateTime ScalarType = "DateTime"
	TypeBigInt   ScalarType = "BigInt"
	TypeDecimal  ScalarType = "Decimal"
	TypeJSON     ScalarType = "Json"
	TypeBytes    ScalarType = "Bytes"
)

// ScalarTypes lists every scalar type in display order
var ScalarTypes = []ScalarType{
	TypeString, TypeInt, TypeFloat, TypeBoolean, TypeDateTime,
	TypeBigInt, TypeDecimal, TypeJSON, TypeBytes,
}

// IsValid reports whether t is a known scalar type
func (t ScalarType) IsValid() bool {
	for _, s := range ScalarTypes {
		if s == t {
			return true
		}
	}
	return false
}

// FieldAttribute is a field-level attribute token
type FieldAttribute string

const (
	AttrID        FieldAttribute = "id"
	AttrUnique    FieldAttribute = "unique"
	AttrDefault   FieldAttribute = "default"
	AttrMap       FieldAttribute = "map"
	AttrUpdatedAt FieldAttribute = "updatedAt"
	AttrDBText    FieldAttribute = "@db.Text"
	AttrDBVarChar FieldAttribute = "@db.VarChar"
)

// FieldAttributes is the fixed field attribute vocabulary
var FieldAttributes = []FieldAttribute{
	AttrID, AttrUnique, AttrDefault, AttrMap, AttrUpdatedAt, AttrDBText, AttrDBVarChar,
}

// IsValid reports whether a belongs to the field attribute vocabulary
func (a FieldAttribute) IsValid() bool {
	for _, v := range FieldAttributes {
		if v == a {
			return true
		}
	}
	return false
}

// ModelAttributeName is the name of a model-level attribute
type ModelAttributeName string

const (
	ModelAttrMap      ModelAttributeName = "@@map"
	ModelAttrID       ModelAttributeName = "@@id"
	ModelAttrUnique   ModelAttributeName = "@@unique"
	ModelAttrIndex    ModelAttributeName = "@@index"
	ModelAttrFulltext ModelAttributeName = "@@fulltext"
	ModelAttrIgnore   ModelAttributeName = "@@ignore"
)

// ModelAttributeSpec describes a model attribute name
type ModelAttributeSpec struct {
	Name          ModelAttributeName
	Description   string
	RequiresValue bool
	// Singleton attributes may appear at most once per model
	Singleton bool
}

// ModelAttributeSpecs is the static lookup table of model attributes
var ModelAttributeSpecs = []ModelAttributeSpec{
	{Name: ModelAttrMap, Description: "Map model to a different table name", RequiresValue: true, Singleton: true},
	{Name: ModelAttrID, Description: "Define composite ID", RequiresValue: true, Singleton: true},
	{Name: ModelAttrUnique, Description: "Define composite unique constraint", RequiresValue: true},
	{Name: ModelAttrIndex, Description: "Define database index", RequiresValue: true},
	{Name: ModelAttrFulltext, Description: "Define full-text search index", RequiresValue: true},
	{Name: ModelAttrIgnore, Description: "Ignore model in SQL schema", RequiresValue: false, Singleton: true},
}

// LookupModelAttribute returns the spec for a model attribute name
func LookupModelAttribute(name ModelAttributeName) (ModelAttributeSpec, bool) {
	for _, s := range ModelAttributeSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return ModelAttributeSpec{}, false
}

// RelationType is the cardinality of a relationship
type RelationType string

const (
	OneToOne   RelationType = "ONE_TO_ONE"
	OneToMany  RelationType = "ONE_TO_MANY"
	ManyToMany RelationType = "MANY_TO_MANY"
)

// IsValid reports whether t is a known relation type
func (t RelationType) IsValid() bool {
	switch t {
	case OneToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// IsList reports whether the owning side of the relation holds many records
func (t RelationType) IsList() bool {
	return t == OneToMany || t == ManyToMany
}

// ReferentialAction is applied to dependent rows when a referenced row changes
type ReferentialAction string

const (
	ActionCascade    ReferentialAction = "CASCADE"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionNoAction   ReferentialAction = "NO_ACTION"
	ActionSetNull    ReferentialAction = "SET_NULL"
	ActionSetDefault ReferentialAction = "SET_DEFAULT"
)

var actionKeywords = map[ReferentialAction]string{
	ActionCascade:    "Cascade",
	ActionRestrict:   "Restrict",
	ActionNoAction:   "NoAction",
	ActionSetNull:    "SetNull",
	ActionSetDefault: "SetDefault",
}

// IsValid reports whether a is a known referential action
func (a ReferentialAction) IsValid() bool {
	_, ok := actionKeywords[a]
	return ok
}

// Keyword returns the schema language spelling of the action.
// Unknown actions are returned verbatim.
func (a ReferentialAction) Keyword() string {
	if k, ok := actionKeywords[a]; ok {
		return k
	}
	return string(a)
}
