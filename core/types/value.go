package types

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the typed condition value variant.
type ValueKind string

const (
	// KindNumber is a numeric value
	KindNumber ValueKind = "number"

	// KindString is a plain string value
	KindString ValueKind = "string"

	// KindBool is a boolean value
	KindBool ValueKind = "bool"

	// KindDate is a calendar date or timestamp
	KindDate ValueKind = "date"

	// KindList is an ordered list of values; BETWEEN uses a
	// two-element list as an inclusive range, IN uses any length
	KindList ValueKind = "list"
)

// Value is a tagged condition value. Raw rule data (JSON, HCL, YAML, DB
// rows) is resolved into a Value once at rule-load time, so evaluation
// never inspects dynamic types.
type Value struct {
	// Kind selects which of the remaining fields is populated
	Kind ValueKind `json:"kind"`

	// Number holds the value when Kind is KindNumber
	Number decimal.Decimal `json:"number,omitempty"`

	// Str holds the value when Kind is KindString
	Str string `json:"str,omitempty"`

	// Bool holds the value when Kind is KindBool
	Bool bool `json:"bool,omitempty"`

	// Date holds the value when Kind is KindDate
	Date time.Time `json:"date,omitempty"`

	// List holds the elements when Kind is KindList
	List []Value `json:"list,omitempty"`
}

// datePattern matches ISO-8601 dates, optionally with a time component.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?)?$`)

// NumberValue builds a numeric Value.
func NumberValue(d decimal.Decimal) Value {
	return Value{Kind: KindNumber, Number: d}
}

// StringValue builds a string Value. Strings that look like ISO-8601
// dates resolve to a date Value instead, matching how user-authored
// rule data carries dates.
func StringValue(s string) Value {
	if t, ok := parseDate(s); ok {
		return Value{Kind: KindDate, Date: t}
	}
	return Value{Kind: KindString, Str: s}
}

// BoolValue builds a boolean Value.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// DateValue builds a date Value.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: t}
}

// RangeValue builds an inclusive two-element range Value.
func RangeValue(lo, hi Value) Value {
	return Value{Kind: KindList, List: []Value{lo, hi}}
}

// ListValue builds a list Value for IN conditions.
func ListValue(elems ...Value) Value {
	return Value{Kind: KindList, List: elems}
}

// ResolveValue converts a loosely-typed raw value (as decoded from JSON,
// YAML or a database row) into a tagged Value. Returns an error for
// shapes no operator can consume.
func ResolveValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Value{}, fmt.Errorf("condition value is null")
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	case int:
		return NumberValue(decimal.NewFromInt(int64(v))), nil
	case int64:
		return NumberValue(decimal.NewFromInt(v)), nil
	case float64:
		return NumberValue(decimal.NewFromFloat(v)), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return Value{}, fmt.Errorf("invalid numeric condition value %q: %w", v.String(), err)
		}
		return NumberValue(d), nil
	case decimal.Decimal:
		return NumberValue(v), nil
	case time.Time:
		return DateValue(v), nil
	case []any:
		if len(v) == 0 {
			return Value{}, fmt.Errorf("list condition value is empty")
		}
		elems := make([]Value, 0, len(v))
		for _, e := range v {
			resolved, err := ResolveValue(e)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, resolved)
		}
		return ListValue(elems...), nil
	default:
		return Value{}, fmt.Errorf("unsupported condition value type %T", raw)
	}
}

// parseDate attempts to interpret s as an ISO-8601 date string.
func parseDate(s string) (time.Time, bool) {
	if !datePattern.MatchString(s) {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsNumeric reports whether the value can participate in numeric comparison.
func (v Value) IsNumeric() bool {
	return v.Kind == KindNumber
}

// String returns a human-readable rendering for logs and step messages.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return v.Number.String()
	case KindString:
		return v.Str
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindDate:
		return v.Date.Format(time.RFC3339)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}
