package validate

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/tordrt/prismagen/internal/schema"
)

var (
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	decimalPattern = regexp.MustCompile(`^-?\d*\.?\d+$`)
)

// maxEpochMillis bounds numeric DateTime defaults to ±100,000,000 days
// around the Unix epoch
const maxEpochMillis = 8.64e15

// dateTimeLayouts are tried in order when checking DateTime defaults
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func validateDefaultValue(field schema.Field) Diagnostics {
	loc := At(EntityField, Key("defaultValue"))
	v := field.DefaultValue

	switch field.Type {
	case schema.TypeInt, schema.TypeBigInt:
		if !integerPattern.MatchString(v.String()) {
			return Diagnostics{errorAt(loc, "Default value must be a valid %s", field.Type)}
		}
	case schema.TypeFloat, schema.TypeDecimal:
		if !decimalPattern.MatchString(v.String()) {
			return Diagnostics{errorAt(loc, "Default value must be a valid %s", field.Type)}
		}
	case schema.TypeBoolean:
		if _, ok := v.Bool(); !ok {
			return Diagnostics{errorAt(loc, "Default value must be a boolean")}
		}
	case schema.TypeDateTime:
		if !isDateTime(v) {
			return Diagnostics{errorAt(loc, "Default value must be a valid date")}
		}
	}
	return nil
}

// isDateTime reports whether v denotes a calendar date/time. Numbers are
// read as milliseconds since the Unix epoch.
func isDateTime(v schema.Value) bool {
	switch v.Kind() {
	case schema.ValueNumber:
		n, err := strconv.ParseFloat(v.String(), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return false
		}
		return math.Abs(n) <= maxEpochMillis
	case schema.ValueString:
		s := v.String()
		for _, layout := range dateTimeLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
	}
	return false
}
