package db

import (
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tordrt/prismagen/internal/schema"
)

// ToDocument converts introspected tables into a document. newID supplies
// the id of every model and relationship.
//
// Tables become models named in singular PascalCase, with @@map when the
// name differs from the table. Columns become lowerCamel fields. Foreign
// keys become ONE_TO_MANY relationships, or ONE_TO_ONE when the source
// column is unique on its own.
func ToDocument(tables []Table, newID func() string) schema.Document {
	var doc schema.Document
	ids := make(map[string]string, len(tables))
	fieldNames := make(map[string]map[string]string, len(tables))

	for _, t := range tables {
		m, names := tableToModel(t)
		m.ID = newID()
		ids[t.Name] = m.ID
		fieldNames[t.Name] = names
		doc.Models = append(doc.Models, m)
	}

	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			target, ok := ids[fk.TargetTable]
			if !ok {
				// Referenced table was not introspected
				continue
			}
			rel := schema.Relationship{
				ID:        newID(),
				FromModel: ids[t.Name],
				ToModel:   target,
				Type:      schema.OneToMany,
				Config: schema.RelationConfig{
					OnDelete: ParseReferentialAction(fk.OnDelete),
					OnUpdate: ParseReferentialAction(fk.OnUpdate),
				},
			}
			if len(fk.Columns) == 1 && (t.IsUnique(fk.Columns[0]) || t.IsPrimaryKey(fk.Columns[0])) {
				rel.Type = schema.OneToOne
			}
			for i, col := range fk.Columns {
				if i >= len(fk.TargetColumns) {
					break
				}
				rel.Config.Fields = append(rel.Config.Fields, schema.FieldMapping{
					FieldName:       fieldNames[t.Name][col],
					ReferencedField: lookupField(fieldNames[fk.TargetTable], fk.TargetColumns[i]),
				})
			}
			doc.Relationships = append(doc.Relationships, rel)
		}
	}

	return doc
}

// ModelName converts a table name to a singular PascalCase model name
func ModelName(table string) string {
	return inflect.Camelize(inflect.Singularize(table))
}

// FieldName converts a column name to a lowerCamel field name
func FieldName(column string) string {
	return inflect.CamelizeDownFirst(column)
}

func tableToModel(t Table) (schema.Model, map[string]string) {
	m := schema.Model{Name: ModelName(t.Name)}
	names := make(map[string]string, len(t.Columns))

	for _, col := range t.Columns {
		names[col.Name] = FieldName(col.Name)
		m.Fields = append(m.Fields, columnToField(t, col))
	}

	if m.Name != t.Name {
		m.Attributes = append(m.Attributes, schema.ModelAttribute{
			Name:  schema.ModelAttrMap,
			Value: strconv.Quote(t.Name),
		})
	}
	if len(t.PrimaryKey) > 1 {
		m.Attributes = append(m.Attributes, schema.ModelAttribute{
			Name:  schema.ModelAttrID,
			Value: fieldList(names, t.PrimaryKey),
		})
	}
	for _, idx := range t.Indexes {
		switch {
		case idx.IsUnique && len(idx.Columns) == 1:
			// Rendered as a field attribute
		case idx.IsUnique:
			m.Attributes = append(m.Attributes, schema.ModelAttribute{Name: schema.ModelAttrUnique, Value: fieldList(names, idx.Columns)})
		default:
			m.Attributes = append(m.Attributes, schema.ModelAttribute{Name: schema.ModelAttrIndex, Value: fieldList(names, idx.Columns)})
		}
	}

	return m, names
}

func columnToField(t Table, col Column) schema.Field {
	scalar, isList := MapColumnType(col.Type)
	f := schema.Field{
		Name:       FieldName(col.Name),
		Type:       scalar,
		IsRequired: !col.Nullable,
		IsList:     isList,
	}

	switch {
	case t.IsPrimaryKey(col.Name):
		f.Attributes = append(f.Attributes, schema.AttrID)
	case t.IsUnique(col.Name):
		f.Attributes = append(f.Attributes, schema.AttrUnique)
	}

	if col.DefaultValue != nil && !isList {
		if v, ok := ParseDefault(*col.DefaultValue, scalar); ok {
			f.DefaultValue = v
			f.Attributes = append(f.Attributes, schema.AttrDefault)
		}
	}

	return f
}

// columnTypes is checked in order; the first substring match wins
var columnTypes = []struct {
	match  string
	scalar schema.ScalarType
}{
	{"tinyint(1)", schema.TypeBoolean},
	{"bool", schema.TypeBoolean},
	{"bigint", schema.TypeBigInt},
	{"bigserial", schema.TypeBigInt},
	{"int8", schema.TypeBigInt},
	{"interval", schema.TypeString},
	{"point", schema.TypeString},
	{"int", schema.TypeInt},
	{"serial", schema.TypeInt},
	{"numeric", schema.TypeDecimal},
	{"decimal", schema.TypeDecimal},
	{"money", schema.TypeDecimal},
	{"double", schema.TypeFloat},
	{"float", schema.TypeFloat},
	{"real", schema.TypeFloat},
	{"timestamp", schema.TypeDateTime},
	{"datetime", schema.TypeDateTime},
	{"date", schema.TypeDateTime},
	{"time", schema.TypeDateTime},
	{"json", schema.TypeJSON},
	{"bytea", schema.TypeBytes},
	{"blob", schema.TypeBytes},
	{"binary", schema.TypeBytes},
}

// MapColumnType maps a SQL column type to a scalar type. A trailing []
// marks a list. Unrecognized types map to String.
func MapColumnType(sqlType string) (schema.ScalarType, bool) {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	isList := strings.HasSuffix(t, "[]")
	t = strings.TrimSuffix(t, "[]")

	for _, ct := range columnTypes {
		if strings.Contains(t, ct.match) {
			return ct.scalar, isList
		}
	}
	return schema.TypeString, isList
}

// ParseReferentialAction maps a SQL rule such as "SET NULL" to an action.
// Empty input yields no action.
func ParseReferentialAction(rule string) schema.ReferentialAction {
	rule = strings.ToUpper(strings.TrimSpace(rule))
	if rule == "" {
		return ""
	}
	return schema.ReferentialAction(strings.ReplaceAll(rule, " ", "_"))
}

// ParseDefault extracts a literal default from a column default expression.
// Function calls, sequences and NULL are not literals.
func ParseDefault(raw string, scalar schema.ScalarType) (schema.Value, bool) {
	expr := strings.TrimSpace(raw)
	if i := strings.Index(expr, "::"); i > 0 {
		expr = expr[:i]
	}
	expr = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(expr, "("), ")"))

	quoted := len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\''
	if quoted {
		expr = strings.ReplaceAll(expr[1:len(expr)-1], "''", "'")
	} else if expr == "" || strings.EqualFold(expr, "null") || strings.Contains(expr, "(") {
		return schema.Value{}, false
	}

	switch scalar {
	case schema.TypeBoolean:
		switch strings.ToLower(expr) {
		case "true", "1", "b'1'":
			return schema.BoolValue(true), true
		case "false", "0", "b'0'":
			return schema.BoolValue(false), true
		}
		return schema.Value{}, false
	case schema.TypeInt, schema.TypeBigInt:
		if _, err := strconv.ParseInt(expr, 10, 64); err != nil {
			return schema.Value{}, false
		}
		v, err := schema.ParseNumber(expr)
		if err != nil {
			return schema.Value{}, false
		}
		return v, true
	case schema.TypeFloat, schema.TypeDecimal:
		n, err := strconv.ParseFloat(expr, 64)
		if err != nil {
			return schema.Value{}, false
		}
		return schema.NumberValue(n), true
	case schema.TypeDateTime:
		if !quoted {
			// CURRENT_TIMESTAMP and friends
			return schema.Value{}, false
		}
		return schema.StringValue(expr), true
	case schema.TypeString:
		if !quoted && strings.HasPrefix(strings.ToUpper(expr), "CURRENT_") {
			return schema.Value{}, false
		}
		return schema.StringValue(expr), true
	}
	if quoted {
		return schema.StringValue(expr), true
	}
	return schema.Value{}, false
}

func fieldList(names map[string]string, columns []string) string {
	fields := make([]string, len(columns))
	for i, c := range columns {
		fields[i] = lookupField(names, c)
	}
	return "[" + strings.Join(fields, ", ") + "]"
}

func lookupField(names map[string]string, column string) string {
	if n, ok := names[column]; ok {
		return n
	}
	return FieldName(column)
}
