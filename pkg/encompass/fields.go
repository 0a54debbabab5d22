package encompass

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MassageCustomFields converts field name to value pairs into custom field
// entries. Every value gets a StringValue; values that parse as a number also
// get a NumericValue. Entries are ordered by field name.
func MassageCustomFields(customFields map[string]interface{}) []CustomField {
	if len(customFields) == 0 {
		return []CustomField{}
	}

	names := make([]string, 0, len(customFields))
	for name := range customFields {
		names = append(names, name)
	}

	sort.Strings(names)

	massaged := make([]CustomField, 0, len(names))
	for _, name := range names {
		massaged = append(massaged, newCustomField(name, customFields[name]))
	}

	return massaged
}

func newCustomField(name string, value interface{}) CustomField {
	field := CustomField{FieldName: name}

	switch typed := value.(type) {
	case nil:
		return field
	case string:
		field.StringValue = typed
	case float64:
		field.StringValue = strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		field.StringValue = strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case fmt.Stringer:
		field.StringValue = typed.String()
	default:
		field.StringValue = fmt.Sprint(typed)
	}

	if number, ok := leadingFloat(field.StringValue); ok {
		field.NumericValue = &number
	}

	return field
}

// numericPrefix matches a leading decimal number: optional sign, digits with
// an optional fraction or a bare fraction, and an optional exponent.
var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// leadingFloat parses the numeric prefix of s, so "12.5%" yields 12.5. Hex,
// underscores, infinities and NaN are not numbers here.
func leadingFloat(s string) (float64, bool) {
	prefix := numericPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return 0, false
	}

	number, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}

	return number, true
}

// ReduceFieldReaderValues maps field IDs to their values.
func ReduceFieldReaderValues(results []FieldReaderResult) map[string]string {
	values := make(map[string]string, len(results))
	for _, result := range results {
		values[result.FieldID] = result.Value
	}

	return values
}
