// Package schema compiles UI-authored structured-output descriptions into
// runtime validators. Schemas are drafts while the user is editing, so
// compilation is deliberately lenient: anything unknown or incomplete
// degrades to a permissive validator instead of rejecting the schema.
package schema

import "fmt"

type PropertyType string

const (
	TypeString PropertyType = "STR"
	TypeNumber PropertyType = "NUM"
	TypeBool   PropertyType = "BOOL"
	TypeEnum   PropertyType = "ENUM"
	TypeObject PropertyType = "OBJ"
	TypeArray  PropertyType = "ARR"
)

// StructuredSchema is the property tree authored in the schema builder UI.
type StructuredSchema struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

type Property struct {
	Name        string       `json:"name"`
	Type        PropertyType `json:"type"`
	Description string       `json:"description,omitempty"`
	Required    *bool        `json:"required,omitempty"`
	Enum        []string     `json:"enum,omitempty"`
	Properties  []Property   `json:"properties,omitempty"`
	Items       *Property    `json:"items,omitempty"`
}

// defaultEnumOptions stands in for an ENUM property whose authored option
// list is empty. Intentional quirk carried over from the original builder;
// do not "fix" by rejecting the property.
var defaultEnumOptions = []string{"A", "B"}

// required reports whether the property is mandatory. Absence of the
// required flag means required.
func (p *Property) required() bool {
	return p.Required == nil || *p.Required
}

type kind int

const (
	kindAny kind = iota
	kindString
	kindNumber
	kindBool
	kindEnum
	kindObject
	kindArray
)

// Validator checks candidate values against a compiled schema and renders
// the provider-facing JSON Schema description.
type Validator struct {
	kind        kind
	description string
	enum        []string
	fields      []field
	items       *Validator
}

type field struct {
	name     string
	required bool
	v        *Validator
}

// Compile builds a Validator from a structured schema. A nil schema
// compiles to an object validator with no fields. Compile never fails.
func Compile(s *StructuredSchema) *Validator {
	if s == nil {
		return compileObject(nil)
	}
	return compileObject(s.Properties)
}

func compileObject(props []Property) *Validator {
	v := &Validator{kind: kindObject}
	for i := range props {
		p := &props[i]
		if p.Name == "" {
			continue
		}
		v.fields = append(v.fields, field{
			name:     p.Name,
			required: p.required(),
			v:        compileProperty(p),
		})
	}
	return v
}

func compileProperty(p *Property) *Validator {
	switch p.Type {
	case TypeString:
		return &Validator{kind: kindString, description: p.Description}
	case TypeNumber:
		return &Validator{kind: kindNumber, description: p.Description}
	case TypeBool:
		return &Validator{kind: kindBool, description: p.Description}
	case TypeEnum:
		options := p.Enum
		if len(options) == 0 {
			options = defaultEnumOptions
		}
		return &Validator{kind: kindEnum, description: p.Description, enum: options}
	case TypeArray:
		items := &Validator{kind: kindAny}
		if p.Items != nil {
			items = compileProperty(p.Items)
		}
		return &Validator{kind: kindArray, description: p.Description, items: items}
	case TypeObject:
		obj := compileObject(p.Properties)
		obj.description = p.Description
		return obj
	default:
		// Unknown type: accept anything.
		return &Validator{kind: kindAny, description: p.Description}
	}
}

// Validate checks a parsed JSON value (as produced by encoding/json into
// any) against the schema. Unknown object keys are allowed; only declared
// fields are checked. The result is advisory — callers that receive
// model output treat a failure as "keep the raw value", not as a hard error.
func (v *Validator) Validate(value any) error {
	return v.validate(value, "$")
}

func (v *Validator) validate(value any, path string) error {
	switch v.kind {
	case kindAny:
		return nil
	case kindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, value)
		}
	case kindNumber:
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("%s: expected number, got %T", path, value)
		}
	case kindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, value)
		}
	case kindEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected enum string, got %T", path, value)
		}
		for _, opt := range v.enum {
			if s == opt {
				return nil
			}
		}
		return fmt.Errorf("%s: %q is not one of %v", path, s, v.enum)
	case kindArray:
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, value)
		}
		for i, el := range arr {
			if err := v.items.validate(el, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case kindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, value)
		}
		for _, f := range v.fields {
			fv, present := obj[f.name]
			if !present {
				if f.required {
					return fmt.Errorf("%s: missing required field %q", path, f.name)
				}
				continue
			}
			if err := f.v.validate(fv, path+"."+f.name); err != nil {
				return err
			}
		}
	}
	return nil
}
