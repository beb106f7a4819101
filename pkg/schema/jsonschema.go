package schema

// JSONSchema renders the argument object as a JSON Schema document, the form
// MCP clients expect in a tool's inputSchema.
func (a Args) JSONSchema() map[string]any {
	return objectSchema("", a.Fields, a.Open)
}

func objectSchema(description string, fields []Field, open bool) map[string]any {
	properties := make(map[string]any, len(fields))
	required := []string{}
	for _, f := range fields {
		properties[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": open,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if description != "" {
		out["description"] = description
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	if f.Type == Object {
		return objectSchema(f.Description, f.Fields, f.Open)
	}

	out := map[string]any{}
	switch f.Type {
	case Map:
		out["type"] = "object"
		out["additionalProperties"] = fieldSchema(*f.Items)
	case Array:
		out["type"] = "array"
		out["items"] = fieldSchema(*f.Items)
	case Integer:
		w := f.Width
		if w == "" {
			w = Int64
		}
		out["type"] = "integer"
		out["minimum"], out["maximum"] = w.bounds()
	default:
		out["type"] = string(f.Type)
	}

	if f.Description != "" {
		out["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		out["enum"] = f.Enum
	}
	if f.Default != nil {
		out["default"] = f.Default
	}
	return out
}
