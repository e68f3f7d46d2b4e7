package command

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// CheckParams runs the base validation on a raw parameter container: it must
// be a map keyed by strings, and every value must be JSON encodable without
// cycles. A nil container is treated as an empty mapping.
func CheckParams(container any) error {
	if container == nil {
		return nil
	}
	if _, ok := container.(*Params); ok {
		return nil
	}
	rv := reflect.ValueOf(container)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return &ValidationError{
			Field:   "params",
			Code:    CodeNotMapping,
			Message: fmt.Sprintf("params must be a mapping, got %T", container),
			cause:   ErrNotMapping,
		}
	}
	return checkEncodable("params", container)
}

// checkEncodable walks v and reports values encoding/json cannot represent.
// Cycles and unsupported values are reported as distinct causes.
func checkEncodable(field string, v any) error {
	w := &walker{field: field, onPath: make(map[visit]bool)}
	if err := w.walk(reflect.ValueOf(v), field); err != nil {
		return err
	}
	if _, err := json.Marshal(v); err != nil {
		return &ValidationError{
			Field:   field,
			Code:    CodeNotJSON,
			Message: err.Error(),
			cause:   ErrNotSerializable,
		}
	}
	return nil
}

// Normalize converts v into the JSON value model used by Params. The result
// shares no memory with v.
func Normalize(v any) (any, error) {
	return normalize("value", v)
}

// normalize converts v into the JSON value model: nil, bool, string,
// json.Number, []any and map[string]any. The result shares no memory with v.
func normalize(field string, v any) (any, error) {
	if err := checkEncodable(field, v); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &ValidationError{Field: field, Code: CodeNotJSON, Message: err.Error(), cause: ErrNotSerializable}
	}
	return decodeValue(raw)
}

func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// deepCopy copies a normalized value.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = deepCopy(e)
		}
		return s
	default:
		return v
	}
}

type visit struct {
	ptr uintptr
	len int
	typ reflect.Type
}

type walker struct {
	field  string
	onPath map[visit]bool
}

func (w *walker) circular(path string) error {
	return &ValidationError{
		Field:   w.field,
		Code:    CodeCircular,
		Message: fmt.Sprintf("circular reference at %s", path),
		cause:   ErrCircularReference,
	}
}

func (w *walker) unsupported(path string, format string, args ...any) error {
	return &ValidationError{
		Field:   w.field,
		Code:    CodeNotJSON,
		Message: fmt.Sprintf("%s: %s", path, fmt.Sprintf(format, args...)),
		cause:   ErrNotSerializable,
	}
}

// enter marks a reference type as being on the current path. It returns
// false when the same reference is already being walked.
func (w *walker) enter(v visit) bool {
	if w.onPath[v] {
		return false
	}
	w.onPath[v] = true
	return true
}

func (w *walker) walk(v reflect.Value, path string) error {
	if !v.IsValid() {
		return nil
	}
	// Custom marshalers decide their own encoding; json.Marshal verifies them.
	if v.Type().Implements(jsonMarshalerType) && v.Kind() != reflect.Interface {
		return nil
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(jsonMarshalerType) {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return w.walk(v.Elem(), path)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if !w.enter(key) {
			return w.circular(path)
		}
		defer delete(w.onPath, key)
		return w.walk(v.Elem(), path)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		kt := v.Type().Key()
		switch kt.Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		default:
			if !kt.Implements(textMarshalerType) {
				return w.unsupported(path, "unsupported map key type %s", kt)
			}
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if !w.enter(key) {
			return w.circular(path)
		}
		defer delete(w.onPath, key)
		iter := v.MapRange()
		for iter.Next() {
			if err := w.walk(iter.Value(), fmt.Sprintf("%s.%v", path, iter.Key())); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		key := visit{ptr: v.Pointer(), len: v.Len(), typ: v.Type()}
		if !w.enter(key) {
			return w.circular(path)
		}
		defer delete(w.onPath, key)
		return w.walkElems(v, path)

	case reflect.Array:
		return w.walkElems(v, path)

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			name := f.Name
			if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" {
				name = tag
			}
			if err := w.walk(v.Field(i), path+"."+name); err != nil {
				return err
			}
		}
		return nil

	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return w.unsupported(path, "non-finite number %v", f)
		}
		return nil

	case reflect.Complex64, reflect.Complex128, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return w.unsupported(path, "unsupported type %s", v.Type())
	}
	return nil
}

func (w *walker) walkElems(v reflect.Value, path string) error {
	for i := 0; i < v.Len(); i++ {
		if err := w.walk(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}
