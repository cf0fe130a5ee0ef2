// Package validate provides struct-tag validation for records entering the
// store.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty (strings are trimmed)
//	nullable            if empty, skip all remaining rules for this field
//	date                YYYY-MM-DD or RFC 3339 date
//	min=N               string: min char length | number: min value | slice: min items
//	max=N               string: max char length | number: max value | slice: max items
//	gte=N               number >= N
//	lte=N               number <= N
//	in=a|b|c            value must be one of the listed items
//
// Example:
//
//	type Input struct {
//	    Name  string  `json:"name"  validate:"required,max=100"`
//	    Price float64 `json:"price" validate:"gte=0"`
//	    Kind  string  `json:"kind"  validate:"nullable,in=running|hiking"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Errors maps a field's JSON name to its first failing rule message.
type Errors map[string]string

// Error implements error with fields listed in a stable order.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, e[f])
	}
	return "validation failed: " + strings.Join(parts, " ")
}

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns an empty map when v is valid.
func Struct(v interface{}) Errors {
	errs := make(Errors)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		value := rv.Field(i)
		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				if strings.Contains(tag, "required") {
					errs[jsonFieldName(field)] = fmt.Sprintf("The %s field is required.", jsonFieldName(field))
				}
				continue
			}
			value = value.Elem()
		}

		name := jsonFieldName(field)
		rules := strings.Split(tag, ",")

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
		}
	}

	return errs
}

// Check is Struct returning a nil error when v is valid.
func Check(v interface{}) error {
	if errs := Struct(v); len(errs) > 0 {
		return errs
	}
	return nil
}

// ─── Core dispatcher ──────────────────────────────────────────────────────────

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(strings.TrimSpace(rule), "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "date":
		if _, err := parseDate(fmt.Sprint(v.Interface())); err != nil {
			return fmt.Sprintf("The %s is not a valid date.", field)
		}
	case "min", "max":
		n, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid %s rule.", field, key)
		}
		size, unit := measure(v)
		if key == "min" && size < n {
			return fmt.Sprintf("The %s must be at least %s%s.", field, param, unit)
		}
		if key == "max" && size > n {
			return fmt.Sprintf("The %s must not be greater than %s%s.", field, param, unit)
		}
	case "gte", "lte":
		n, err := strconv.ParseFloat(param, 64)
		if err != nil || !isNumericKind(v) {
			return fmt.Sprintf("The %s must be a number.", field)
		}
		if key == "gte" && toFloat(v) < n {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
		if key == "lte" && toFloat(v) > n {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "in":
		raw := fmt.Sprint(v.Interface())
		for _, opt := range strings.Split(param, "|") {
			if raw == opt {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s has an unknown rule %q.", field, key)
	}
	return ""
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Bool:
		return false // false is a value, not an absence
	default:
		return v.IsZero()
	}
}

func measure(v reflect.Value) (float64, string) {
	switch {
	case isNumericKind(v):
		return toFloat(v), ""
	case v.Kind() == reflect.Slice:
		return float64(v.Len()), " items"
	default:
		return float64(len([]rune(fmt.Sprint(v.Interface())))), " characters"
	}
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
