package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ValueKind identifies which variant a Value holds
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
)

// Value is a field default: a string, a number, a boolean, or absent.
// The zero Value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	// lit is the exact text of an integer that float64 cannot hold
	lit string
	b   bool
}

var integerLiteral = regexp.MustCompile(`^-?\d+$`)

// StringValue creates a string Value
func StringValue(s string) Value {
	return Value{kind: ValueString, str: s}
}

// NumberValue creates a numeric Value
func NumberValue(n float64) Value {
	return Value{kind: ValueNumber, num: n}
}

// ParseNumber creates a numeric Value from its decimal text. Integers
// beyond float64 precision keep their exact digits.
func ParseNumber(text string) (Value, error) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q: %w", text, err)
	}
	v := NumberValue(n)
	if integerLiteral.MatchString(text) && strconv.FormatFloat(n, 'f', -1, 64) != text {
		v.lit = text
	}
	return v, nil
}

// BoolValue creates a boolean Value
func BoolValue(b bool) Value {
	return Value{kind: ValueBool, b: b}
}

// Kind returns the variant held by v
func (v Value) Kind() ValueKind {
	return v.kind
}

// Present reports whether v holds a value
func (v Value) Present() bool {
	return v.kind != ValueNone
}

// IsZero reports whether v is absent. yaml.v3 uses it for omitempty.
func (v Value) IsZero() bool {
	return v.kind == ValueNone
}

// Bool returns the boolean held by v and whether v is a boolean
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == ValueBool
}

// String returns v normalized to text
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		if v.lit != "" {
			return v.lit
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// MarshalJSON encodes v as a JSON string, number, boolean or null
func (v Value) MarshalJSON() ([]byte, error) {
	if v.lit != "" {
		return []byte(v.lit), nil
	}
	return json.Marshal(v.raw())
}

// UnmarshalJSON decodes a JSON string, number, boolean or null
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if n, ok := raw.(json.Number); ok {
		parsed, err := ParseNumber(n.String())
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	return v.fromRaw(raw)
}

// MarshalYAML encodes v as a YAML scalar
func (v Value) MarshalYAML() (any, error) {
	if v.lit != "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.lit}, nil
	}
	return v.raw(), nil
}

// UnmarshalYAML decodes a YAML scalar, keeping its resolved tag
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("default value must be a scalar, got yaml kind %d", node.Kind)
	}
	switch node.ShortTag() {
	case "!!null":
		*v = Value{}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case "!!int", "!!float":
		if integerLiteral.MatchString(node.Value) {
			parsed, err := ParseNumber(node.Value)
			if err != nil {
				return err
			}
			*v = parsed
			return nil
		}
		var n float64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*v = NumberValue(n)
	default:
		*v = StringValue(node.Value)
	}
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if v.lit != "" {
		if n, err := strconv.ParseInt(v.lit, 10, 64); err == nil {
			return enc.EncodeInt(n)
		}
		if n, err := strconv.ParseUint(v.lit, 10, 64); err == nil {
			return enc.EncodeUint(n)
		}
	}
	return enc.Encode(v.raw())
}

// DecodeMsgpack implements msgpack.CustomDecoder
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	return v.fromRaw(raw)
}

func (v Value) raw() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.b
	}
	return nil
}

func (v *Value) fromRaw(raw any) error {
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = StringValue(t)
	case bool:
		*v = BoolValue(t)
	case float64:
		*v = NumberValue(t)
	case float32:
		*v = NumberValue(float64(t))
	case int64:
		parsed, err := ParseNumber(strconv.FormatInt(t, 10))
		if err != nil {
			return err
		}
		*v = parsed
	case uint64:
		parsed, err := ParseNumber(strconv.FormatUint(t, 10))
		if err != nil {
			return err
		}
		*v = parsed
	default:
		return fmt.Errorf("unsupported default value type %T", raw)
	}
	return nil
}
