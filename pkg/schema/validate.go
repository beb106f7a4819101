package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
)

// Validate checks arguments against the descriptor and returns them normalized:
// integers become int64 or uint64 according to their width, numbers become
// float64, nested objects become Values and absent fields with a default are
// filled in. Validation stops at the first failure.
func Validate(a Args, arguments map[string]any) (Values, error) {
	return validateObject("", a.Fields, a.Open, arguments)
}

// Decode parses raw JSON arguments preserving integer precision, then validates them.
// Empty input and JSON null are treated as an empty argument object.
func Decode(a Args, raw []byte) (Values, error) {
	arguments, err := DecodeRaw(raw)
	if err != nil {
		return nil, err
	}
	return Validate(a, arguments)
}

// DecodeRaw parses a raw JSON argument object using json.Number for numbers
func DecodeRaw(raw []byte) (map[string]any, error) {
	arguments := map[string]any{}
	if len(raw) == 0 || string(raw) == "null" {
		return arguments, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("arguments are not valid JSON: %v", err)}
	}
	if v == nil {
		return arguments, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reason: "arguments must be a JSON object"}
	}
	return m, nil
}

func validateObject(path string, fields []Field, open bool, in map[string]any) (Values, error) {
	out := make(Values, len(in))

	if !open {
		known := make(map[string]bool, len(fields))
		for _, f := range fields {
			known[f.Name] = true
		}
		// Sorted so the reported field does not depend on map order.
		names := make([]string, 0, len(in))
		for name := range in {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !known[name] {
				return nil, &ValidationError{Field: join(path, name), Reason: "unknown field"}
			}
		}
	} else {
		for name, v := range in {
			out[name] = v
		}
	}

	for _, f := range fields {
		fieldPath := join(path, f.Name)
		v, present := in[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, &ValidationError{Field: fieldPath, Reason: "is required"}
			}
			if f.Default == nil {
				delete(out, f.Name)
				continue
			}
			v = f.Default
		}

		nv, err := validateValue(fieldPath, f, v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = nv
	}
	return out, nil
}

func validateValue(path string, f Field, v any) (any, error) {
	switch f.Type {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(path, "a string", v)
		}
		if f.Required && s == "" {
			return nil, &ValidationError{Field: path, Reason: "must not be empty"}
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return nil, &ValidationError{Field: path, Reason: fmt.Sprintf("must be one of %v, got %q", f.Enum, s)}
		}
		return s, nil

	case Integer:
		return toInteger(path, f.Width, v)

	case Number:
		return toNumber(path, v)

	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(path, "a boolean", v)
		}
		return b, nil

	case Array:
		items, ok := toSlice(v)
		if !ok {
			return nil, typeError(path, "an array", v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return nil, &ValidationError{Field: itemPath, Reason: "must not be null"}
			}
			nv, err := validateValue(itemPath, *f.Items, item)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil

	case Map:
		m, ok := toMap(v)
		if !ok {
			return nil, typeError(path, "an object", v)
		}
		out := make(map[string]any, len(m))
		for key, item := range m {
			itemPath := join(path, key)
			if item == nil {
				return nil, &ValidationError{Field: itemPath, Reason: "must not be null"}
			}
			nv, err := validateValue(itemPath, *f.Items, item)
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil

	case Object:
		m, ok := toMap(v)
		if !ok {
			return nil, typeError(path, "an object", v)
		}
		return validateObject(path, f.Fields, f.Open, m)
	}

	return nil, &ValidationError{Field: path, Reason: fmt.Sprintf("unsupported schema type %q", f.Type)}
}

// maxNumberToken bounds the textual length of an integer argument. The
// widest accepted value, math.MinInt64, is 20 characters.
const maxNumberToken = 64

// toInteger converts any JSON or Go numeric value to the field's width
// without rounding. Fractions and out of range values are rejected.
func toInteger(path string, w Width, v any) (any, error) {
	if w == "" {
		w = Int64
	}

	f := new(big.Float).SetPrec(256)
	var token string
	switch n := v.(type) {
	case json.Number:
		token = string(n)
		if len(token) > maxNumberToken {
			return nil, rangeError(path, w, token)
		}
		if _, ok := f.SetString(token); !ok {
			return nil, &ValidationError{Field: path, Reason: fmt.Sprintf("invalid number %q", token)}
		}
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, &ValidationError{Field: path, Reason: "must be a finite integer"}
		}
		f.SetFloat64(n)
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return nil, &ValidationError{Field: path, Reason: "must be a finite integer"}
		}
		f.SetFloat64(float64(n))
	case int:
		f.SetInt64(int64(n))
	case int8:
		f.SetInt64(int64(n))
	case int16:
		f.SetInt64(int64(n))
	case int32:
		f.SetInt64(int64(n))
	case int64:
		f.SetInt64(n)
	case uint:
		f.SetUint64(uint64(n))
	case uint8:
		f.SetUint64(uint64(n))
	case uint16:
		f.SetUint64(uint64(n))
	case uint32:
		f.SetUint64(uint64(n))
	case uint64:
		f.SetUint64(n)
	default:
		return nil, typeError(path, "an integer", v)
	}
	if token == "" {
		token = f.Text('g', 20)
	}

	// Magnitudes of 2^64 and above fit no width. Checking the exponent
	// first keeps 1e100000000 from being expanded into a big.Int.
	if f.MantExp(nil) > 64 {
		return nil, rangeError(path, w, token)
	}
	if !f.IsInt() {
		return nil, &ValidationError{Field: path, Reason: fmt.Sprintf("must be an integer, got %s", token)}
	}
	i, _ := f.Int(nil)

	if w.signed() {
		if !i.IsInt64() {
			return nil, rangeError(path, w, token)
		}
		n := i.Int64()
		if w.bits() == 32 && (n < math.MinInt32 || n > math.MaxInt32) {
			return nil, rangeError(path, w, token)
		}
		return n, nil
	}

	if i.Sign() < 0 || !i.IsUint64() {
		return nil, rangeError(path, w, token)
	}
	n := i.Uint64()
	if w.bits() == 32 && n > math.MaxUint32 {
		return nil, rangeError(path, w, token)
	}
	return n, nil
}

func toNumber(path string, v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return nil, &ValidationError{Field: path, Reason: fmt.Sprintf("invalid number %q", string(n))}
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return nil, typeError(path, "a number", v)
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	}
	return nil, false
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Values:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = item
		}
		return out, true
	}
	return nil, false
}

func rangeError(path string, w Width, token string) *ValidationError {
	if len(token) > 24 {
		token = token[:24] + "..."
	}
	return &ValidationError{Field: path, Reason: fmt.Sprintf("value %s out of range for %s", token, w)}
}

func typeError(path, want string, got any) *ValidationError {
	return &ValidationError{Field: path, Reason: fmt.Sprintf("must be %s, got %s", want, jsonKind(got))}
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int32, int64, uint, uint32, uint64:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any, map[string]string, Values:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
