package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// FieldError describes one offending field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a create body is malformed
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return "invalid car spec: " + joinFieldErrors(e.Fields)
}

// DeserializationError is returned when a stored document does not satisfy the
// full CarSpec shape. Documents written by this service never trigger it.
type DeserializationError struct {
	ID     string
	Fields []FieldError
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("stored car %q is malformed: %s", e.ID, joinFieldErrors(e.Fields))
}

func joinFieldErrors(fields []FieldError) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}

// ValidateCreate parses a JSON body into a CarSpecCreate. It fails with a
// *ValidationError listing every missing, null or mistyped field.
// Numeric ranges are not checked.
func ValidateCreate(body []byte) (*CarSpecCreate, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "body", Message: "must be a JSON object"}}}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, &ValidationError{Fields: []FieldError{{Field: "body", Message: "must contain a single JSON object"}}}
	}

	return CreateFromDocument(doc)
}

// CreateFromDocument checks a loosely typed document against the creation
// shape. Numbers may be any Go numeric type or json.Number.
func CreateFromDocument(doc Document) (*CarSpecCreate, error) {
	r := &fieldReader{doc: doc}
	c := &CarSpecCreate{
		Name:              r.str(FieldName),
		Brand:             r.str(FieldBrand),
		Model:             r.str(FieldModel),
		Year:              r.integer(FieldYear),
		Horsepower:        r.integer(FieldHorsepower),
		TopSpeed:          r.integer(FieldTopSpeed),
		Engine:            r.str(FieldEngine),
		Acceleration060:   r.number(FieldAcceleration060),
		ImageURL:          r.str(FieldImageURL),
		BlueprintImageURL: r.str(FieldBlueprintImageURL),
		Description:       r.str(FieldDescription),
		IsLatest:          r.optionalBoolean(FieldIsLatest, false),
	}

	if len(r.errs) > 0 {
		return nil, &ValidationError{Fields: r.errs}
	}
	return c, nil
}

// fieldReader pulls typed values out of a Document, collecting one FieldError
// per bad field instead of stopping at the first.
type fieldReader struct {
	doc  Document
	errs []FieldError
}

func (r *fieldReader) fail(field, message string) {
	r.errs = append(r.errs, FieldError{Field: field, Message: message})
}

func (r *fieldReader) value(field string) (interface{}, bool) {
	v, ok := r.doc[field]
	if !ok {
		r.fail(field, "field required")
		return nil, false
	}
	if v == nil {
		r.fail(field, "must not be null")
		return nil, false
	}
	return v, true
}

func (r *fieldReader) str(field string) string {
	v, ok := r.value(field)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(field, "must be a string")
	}
	return s
}

func (r *fieldReader) integer(field string) int {
	v, ok := r.value(field)
	if !ok {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		r.fail(field, "must be an integer")
	}
	return n
}

func (r *fieldReader) number(field string) float64 {
	v, ok := r.value(field)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(field, "must be a number")
	}
	return f
}

func (r *fieldReader) boolean(field string) bool {
	v, ok := r.value(field)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(field, "must be a boolean")
	}
	return b
}

func (r *fieldReader) optionalBoolean(field string, def bool) bool {
	if _, ok := r.doc[field]; !ok {
		return def
	}
	return r.boolean(field)
}

func (r *fieldReader) timestamp(field string) time.Time {
	v, ok := r.value(field)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := parseTimestamp(t)
		if err == nil {
			return parsed
		}
	}
	r.fail(field, "must be a timestamp")
	return time.Time{}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return integralFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return integralFloat(f)
		}
	}
	return 0, false
}

func integralFloat(f float64) (int, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int cannot hold
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int(f), true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}
