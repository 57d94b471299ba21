package sandbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RenderValue converts the value of an evaluation into display text.
//
// Pointers are followed, so a declaration such as "var y = 3" renders its
// value rather than an address. Composite values (maps, slices, arrays,
// structs) are rendered as JSON so the notebook can pretty-print them;
// functions, channels and other reference-only values render as their type.
// Everything else uses its natural textual form. A missing value, as
// produced by a plain statement, renders empty.
func RenderValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}

	for {
		if s, ok := renderText(v); ok {
			return s
		}
		if v.Kind() != reflect.Ptr && v.Kind() != reflect.Interface {
			break
		}
		if v.IsNil() {
			return "<nil>"
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if data, err := encodeJSON(v); err == nil {
			return string(data)
		}
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.Type().String()
	}

	if !v.CanInterface() {
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

// renderText handles values with their own textual form.
func renderText(v reflect.Value) (string, bool) {
	if !v.CanInterface() {
		return "", false
	}
	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return "", false
	}

	switch val := v.Interface().(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case error:
		return val.Error(), true
	case fmt.Stringer:
		return val.String(), true
	}
	return "", false
}

var errNotEncodable = errors.New("value cannot be encoded")

// encodeJSON marshals v, leaving out the fields the interpreter adds for the
// unexported fields of structs declared in a cell.
func encodeJSON(v reflect.Value) (json.RawMessage, error) {
	if !v.IsValid() {
		return json.RawMessage("null"), nil
	}
	if !hasInterpreterStruct(v.Type(), map[reflect.Type]bool{}) {
		if !v.CanInterface() {
			return nil, errNotEncodable
		}
		return json.Marshal(v.Interface())
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return json.RawMessage("null"), nil
		}
		return encodeJSON(v.Elem())

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return json.RawMessage("null"), nil
		}
		items := make([]json.RawMessage, v.Len())
		for i := range items {
			item, err := encodeJSON(v.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return json.Marshal(items)

	case reflect.Map:
		if v.IsNil() {
			return json.RawMessage("null"), nil
		}
		obj := make(map[string]json.RawMessage, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			item, err := encodeJSON(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[fmt.Sprint(iter.Key())] = item
		}
		return json.Marshal(obj)

	case reflect.Struct:
		var buf bytes.Buffer
		buf.WriteByte('{')
		t := v.Type()
		built := isBuiltStruct(t)
		n := 0
		for i := 0; i < t.NumField(); i++ {
			name, ok := jsonFieldName(t.Field(i), built)
			if !ok {
				continue
			}
			item, err := encodeJSON(v.Field(i))
			if err != nil {
				return nil, err
			}
			key, _ := json.Marshal(name)
			if n > 0 {
				buf.WriteByte(',')
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(item)
			n++
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	return nil, errNotEncodable
}

// hasInterpreterStruct reports whether t contains a struct type built by the
// interpreter.
func hasInterpreterStruct(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return hasInterpreterStruct(t.Elem(), seen)
	case reflect.Map:
		return hasInterpreterStruct(t.Key(), seen) || hasInterpreterStruct(t.Elem(), seen)
	case reflect.Struct:
		if isBuiltStruct(t) {
			for i := 0; i < t.NumField(); i++ {
				if isInterpreterHidden(t.Field(i).Name) {
					return true
				}
			}
		}
		for i := 0; i < t.NumField(); i++ {
			if hasInterpreterStruct(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}

// isBuiltStruct reports whether t has no name or package, as the struct types
// the interpreter builds for cell declarations do.
func isBuiltStruct(t reflect.Type) bool {
	return t.Name() == "" && t.PkgPath() == ""
}

// isInterpreterHidden reports whether a field name is the interpreter's
// exported stand-in for an unexported field: "age" is stored as "Xage".
func isInterpreterHidden(name string) bool {
	if len(name) < 2 || name[0] != 'X' {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[1:])
	return r == '_' || unicode.IsLower(r)
}

// jsonFieldName applies encoding/json naming to a struct field. Unexported
// fields are dropped, and so are interpreter-hidden ones when built is set.
func jsonFieldName(f reflect.StructField, built bool) (string, bool) {
	if f.PkgPath != "" || (built && isInterpreterHidden(f.Name)) {
		return "", false
	}
	name := f.Name
	if tag, ok := f.Tag.Lookup("json"); ok {
		if tag == "-" {
			return "", false
		}
		tag, _, _ = strings.Cut(tag, ",")
		if tag != "" {
			name = tag
		}
	}
	return name, true
}
