package schema

// Values holds validated, normalized arguments. Accessors return the zero
// value for absent fields; validation already rejected wrong types.
type Values map[string]any

// Has reports whether the field is present
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// String returns a string field
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// StringOr returns a string field, or def when absent or empty
func (v Values) StringOr(name, def string) string {
	if s := v.String(name); s != "" {
		return s
	}
	return def
}

// Bool returns a boolean field
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Int64 returns a signed integer field
func (v Values) Int64(name string) int64 {
	switch n := v[name].(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	}
	return 0
}

// Int32 returns an int32 field
func (v Values) Int32(name string) int32 {
	return int32(v.Int64(name))
}

// Uint64 returns an unsigned integer field
func (v Values) Uint64(name string) uint64 {
	switch n := v[name].(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	}
	return 0
}

// Uint32 returns a uint32 field
func (v Values) Uint32(name string) uint32 {
	return uint32(v.Uint64(name))
}

// Float64 returns a number field
func (v Values) Float64(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

// Strings returns an array of strings field
func (v Values) Strings(name string) []string {
	items, _ := v[name].([]any)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Int32s returns an array of int32 field
func (v Values) Int32s(name string) []int32 {
	items, _ := v[name].([]any)
	if items == nil {
		return nil
	}
	out := make([]int32, 0, len(items))
	for _, item := range items {
		if n, ok := item.(int64); ok {
			out = append(out, int32(n))
		}
	}
	return out
}

// StringMap returns a string map field, nil when absent
func (v Values) StringMap(name string) map[string]string {
	m, _ := v[name].(map[string]any)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		if s, ok := item.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Object returns a nested object field, nil when absent
func (v Values) Object(name string) Values {
	o, _ := v[name].(Values)
	return o
}

// Objects returns an array of objects field
func (v Values) Objects(name string) []Values {
	items, _ := v[name].([]any)
	if items == nil {
		return nil
	}
	out := make([]Values, 0, len(items))
	for _, item := range items {
		if o, ok := item.(Values); ok {
			out = append(out, o)
		}
	}
	return out
}
