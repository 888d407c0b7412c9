package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/prismagen/internal/db"
	"github.com/tordrt/prismagen/internal/schema"
)

// parseFieldSpec parses the compact field notation used on the command line:
//
//	name:Type[?|[]][@attr...]
//
// A trailing ? marks an optional field and [] a list. Attributes follow the
// type, e.g. "id:Int@id", "email:String@unique", "bio:String?@db.Text" or
// "role:String@default(\"user\")".
func parseFieldSpec(spec string) (schema.Field, error) {
	name, rest, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok || name == "" || rest == "" {
		return schema.Field{}, fmt.Errorf("invalid field %q (expected name:Type)", spec)
	}

	typePart, attrPart := rest, ""
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		typePart, attrPart = rest[:i], rest[i:]
	}

	f := schema.Field{Name: name, IsRequired: true}
	switch {
	case strings.HasSuffix(typePart, "[]"):
		f.IsList = true
		f.IsRequired = false
		typePart = strings.TrimSuffix(typePart, "[]")
	case strings.HasSuffix(typePart, "?"):
		f.IsRequired = false
		typePart = strings.TrimSuffix(typePart, "?")
	}
	if typePart == "" {
		return schema.Field{}, fmt.Errorf("invalid field %q: missing type", spec)
	}
	f.Type = schema.ScalarType(typePart)

	for attrPart != "" {
		if attrPart[0] != '@' || len(attrPart) == 1 {
			return schema.Field{}, fmt.Errorf("invalid field %q: malformed attribute %q", spec, attrPart)
		}
		attrPart = attrPart[1:]
		if raw, ok := strings.CutPrefix(attrPart, "default("); ok {
			end := closingParen(raw)
			if end < 0 {
				return schema.Field{}, fmt.Errorf("invalid field %q: unterminated @default", spec)
			}
			f.Attributes = append(f.Attributes, schema.AttrDefault)
			f.DefaultValue = parseLiteral(raw[:end], f.Type)
			attrPart = raw[end+1:]
			continue
		}

		token := attrPart
		if i := strings.IndexByte(attrPart[1:], '@'); i >= 0 {
			token = attrPart[:i+1]
		}
		attrPart = attrPart[len(token):]
		if strings.HasPrefix(token, "db.") {
			token = "@" + token
		}
		f.Attributes = append(f.Attributes, schema.FieldAttribute(token))
	}
	return f, nil
}

// closingParen returns the index of the ')' closing a default literal.
// Quoted literals may contain parentheses and @.
func closingParen(s string) int {
	if strings.HasPrefix(s, `"`) {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '"':
				if i+1 < len(s) && s[i+1] == ')' {
					return i + 1
				}
				return -1
			}
		}
		return -1
	}
	return strings.IndexByte(s, ')')
}

// parseLiteral converts a default literal according to the field type.
// Quoted literals are always strings.
func parseLiteral(raw string, t schema.ScalarType) schema.Value {
	raw = strings.TrimSpace(raw)
	if s, err := strconv.Unquote(raw); err == nil {
		return schema.StringValue(s)
	}
	switch t {
	case schema.TypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return schema.BoolValue(b)
		}
	case schema.TypeInt, schema.TypeBigInt, schema.TypeFloat, schema.TypeDecimal:
		if v, err := schema.ParseNumber(raw); err == nil {
			return v
		}
	}
	return schema.StringValue(raw)
}

// parseModelAttribute parses "@@name" or "@@name(value)"
func parseModelAttribute(spec string) (schema.ModelAttribute, error) {
	spec = strings.TrimSpace(spec)
	if !strings.HasPrefix(spec, "@@") {
		return schema.ModelAttribute{}, fmt.Errorf("invalid model attribute %q (expected @@name(value))", spec)
	}
	name, value, hasValue := strings.Cut(spec, "(")
	if !hasValue {
		return schema.ModelAttribute{Name: schema.ModelAttributeName(spec)}, nil
	}
	if !strings.HasSuffix(value, ")") {
		return schema.ModelAttribute{}, fmt.Errorf("invalid model attribute %q: missing closing parenthesis", spec)
	}
	return schema.ModelAttribute{
		Name:  schema.ModelAttributeName(name),
		Value: strings.TrimSuffix(value, ")"),
	}, nil
}

// parseMapping parses "field:referencedField"
func parseMapping(spec string) (schema.FieldMapping, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok || from == "" || to == "" {
		return schema.FieldMapping{}, fmt.Errorf("invalid field mapping %q (expected field:referencedField)", spec)
	}
	return schema.FieldMapping{FieldName: from, ReferencedField: to}, nil
}

// parseRelationType accepts ONE_TO_MANY, one-to-many and similar spellings
func parseRelationType(s string) schema.RelationType {
	return schema.RelationType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
}

// parseAction accepts CASCADE, set-null, "SET NULL" and similar spellings
func parseAction(s string) schema.ReferentialAction {
	return db.ParseReferentialAction(strings.ReplaceAll(s, "-", " "))
}

// resolveModel finds a model by id first, then by name
func resolveModel(doc schema.Document, ref string) (schema.Model, error) {
	if m, ok := doc.Model(ref); ok {
		return m, nil
	}
	for _, m := range doc.Models {
		if m.Name == ref {
			return m, nil
		}
	}
	return schema.Model{}, fmt.Errorf("model %q not found", ref)
}
