package schema

// MinimalArguments builds the smallest argument object that passes
// validation: required fields only, filled with a placeholder of their type.
func MinimalArguments(a Args) map[string]any {
	return minimalObject(a.Fields)
}

func minimalObject(fields []Field) map[string]any {
	out := map[string]any{}
	for _, f := range fields {
		if f.Required {
			out[f.Name] = placeholder(f)
		}
	}
	return out
}

func placeholder(f Field) any {
	switch f.Type {
	case String:
		if len(f.Enum) > 0 {
			return f.Enum[0]
		}
		return "example"
	case Integer:
		return int64(1)
	case Number:
		return 1.0
	case Boolean:
		return true
	case Array:
		return []any{placeholder(*f.Items)}
	case Map:
		return map[string]any{}
	case Object:
		return minimalObject(f.Fields)
	}
	return nil
}
