package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// Object is one JSON object of a catalog with its position, used to report
// precise decode errors.
type Object struct {
	doc    string
	index  int
	prefix string
	fields map[string]json.RawMessage
}

// Array splits data into its top-level objects. It fails unless data is a
// JSON array of objects.
func Array(doc string, data []byte) ([]Object, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, lkerrors.NewDecodeError(doc, -1, "", "expected a JSON array").WithCause(err)
	}

	objects := make([]Object, 0, len(items))
	for i, raw := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, lkerrors.NewDecodeError(doc, i, "", "expected an object").WithCause(err)
		}
		objects = append(objects, Object{doc: doc, index: i, fields: fields})
	}
	return objects, nil
}

// Single parses data as one JSON object. Errors inside it carry index -1.
func Single(doc string, data []byte) (Object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Object{}, lkerrors.NewDecodeError(doc, -1, "", "expected a JSON object").WithCause(err)
	}
	return Object{doc: doc, index: -1, fields: fields}, nil
}

// Index is the position of the object in its document.
func (o Object) Index() int { return o.index }

func (o Object) name(field string) string {
	if o.prefix == "" {
		return field
	}
	return o.prefix + "." + field
}

func (o Object) fail(field, reason string, cause error) error {
	return lkerrors.NewDecodeError(o.doc, o.index, o.name(field), reason).WithCause(cause)
}

func (o Object) raw(field string) (json.RawMessage, bool) {
	v, ok := o.fields[field]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

// Has reports whether field is present and not null.
func (o Object) Has(field string) bool {
	_, ok := o.raw(field)
	return ok
}

// String decodes a required string field.
func (o Object) String(field string) (string, error) {
	raw, ok := o.raw(field)
	if !ok {
		return "", o.fail(field, "missing", nil)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", o.fail(field, "expected a string", err)
	}
	return s, nil
}

// OptionalString decodes a string field that may be absent.
func (o Object) OptionalString(field string) (string, error) {
	if !o.Has(field) {
		return "", nil
	}
	return o.String(field)
}

// Int decodes a required integer field.
func (o Object) Int(field string) (int, error) {
	raw, ok := o.raw(field)
	if !ok {
		return 0, o.fail(field, "missing", nil)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, o.fail(field, "expected an integer", err)
	}
	return n, nil
}

// Float decodes a required number field.
func (o Object) Float(field string) (float64, error) {
	raw, ok := o.raw(field)
	if !ok {
		return 0, o.fail(field, "missing", nil)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, o.fail(field, "expected a number", err)
	}
	return n, nil
}

// OptionalBool decodes a boolean field that defaults to false.
func (o Object) OptionalBool(field string) (bool, error) {
	raw, ok := o.raw(field)
	if !ok {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, o.fail(field, "expected a boolean", err)
	}
	return b, nil
}

// OptionalStrings decodes an array of strings that may be absent.
func (o Object) OptionalStrings(field string) ([]string, error) {
	raw, ok := o.raw(field)
	if !ok {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, o.fail(field, "expected an array of strings", err)
	}
	return ss, nil
}

// Object decodes a required nested object. Errors inside it are reported
// as "field.child".
func (o Object) Object(field string) (Object, error) {
	raw, ok := o.raw(field)
	if !ok {
		return Object{}, o.fail(field, "missing", nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Object{}, o.fail(field, "expected an object", err)
	}
	return Object{doc: o.doc, index: o.index, prefix: o.name(field), fields: fields}, nil
}

// Value decodes the field at a dotted path such as "cache.l1d" into its
// generic JSON form. A missing or null field at any level is nil.
func (o Object) Value(path string) (any, error) {
	cur := o
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		if !cur.Has(part) {
			return nil, nil
		}
		next, err := cur.Object(part)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	last := parts[len(parts)-1]
	raw, ok := cur.raw(last)
	if !ok {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, cur.fail(last, "invalid value", err)
	}
	return v, nil
}

// Objects decodes an array of objects that may be absent. Errors inside
// element i are reported as "field[i].child".
func (o Object) Objects(field string) ([]Object, error) {
	raw, ok := o.raw(field)
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, o.fail(field, "expected an array of objects", err)
	}

	out := make([]Object, 0, len(items))
	for i, item := range items {
		name := fmt.Sprintf("%s[%d]", field, i)
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, o.fail(name, "expected an object", err)
		}
		out = append(out, Object{doc: o.doc, index: o.index, prefix: o.name(name), fields: fields})
	}
	return out, nil
}
