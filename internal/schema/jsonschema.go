package schema

// JSONSchema renders the compiled validator as a JSON Schema fragment in the
// shape model providers expect for native structured output (object types
// with explicit required lists and additionalProperties disabled).
func (v *Validator) JSONSchema() map[string]any {
	switch v.kind {
	case kindString:
		return v.withDescription(map[string]any{"type": "string"})
	case kindNumber:
		return v.withDescription(map[string]any{"type": "number"})
	case kindBool:
		return v.withDescription(map[string]any{"type": "boolean"})
	case kindEnum:
		return v.withDescription(map[string]any{"type": "string", "enum": v.enum})
	case kindArray:
		return v.withDescription(map[string]any{
			"type":  "array",
			"items": v.items.JSONSchema(),
		})
	case kindObject:
		props := map[string]any{}
		required := []string{}
		for _, f := range v.fields {
			props[f.name] = f.v.JSONSchema()
			if f.required {
				required = append(required, f.name)
			}
		}
		return v.withDescription(map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		})
	default:
		return map[string]any{}
	}
}

func (v *Validator) withDescription(m map[string]any) map[string]any {
	if v.description != "" {
		m["description"] = v.description
	}
	return m
}
