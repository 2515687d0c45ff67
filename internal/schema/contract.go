package schema

import (
	"fmt"
	"strings"
)

// Kind is the primitive JSON type a field must have
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field declares one property of a response object.
//
// Enum is advisory: it is passed on to providers that support constrained output but
// Validate does not reject values outside it.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Enum     []string
	Items    *Field  // element declaration when Kind is KindArray
	Fields   []Field // properties when Kind is KindObject
}

// Contract is the declared shape of an analysis result
type Contract struct {
	Name   string
	Fields []Field
}

// Required returns the names of the required top-level fields
func (c Contract) Required() []string {
	return requiredNames(c.Fields)
}

func requiredNames(fields []Field) []string {
	var names []string
	for _, f := range fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// ValidationError reports the first structural mismatch found in a document
type ValidationError struct {
	Contract string
	Path     string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s response: %s: %s", e.Contract, e.Path, e.Reason)
}

// Validate checks a decoded JSON object against the contract. Only presence and primitive
// type are checked; ranges and enum membership are not.
func (c Contract) Validate(doc map[string]any) error {
	if doc == nil {
		return &ValidationError{Contract: c.Name, Path: "$", Reason: "expected a JSON object"}
	}
	return c.validateObject("$", doc, c.Fields)
}

func (c Contract) validateObject(path string, obj map[string]any, fields []Field) error {
	for _, f := range fields {
		fieldPath := path + "." + f.Name
		value, ok := obj[f.Name]
		if !ok || value == nil {
			if f.Required {
				return &ValidationError{Contract: c.Name, Path: fieldPath, Reason: "missing required field"}
			}
			continue
		}
		if err := c.validateValue(fieldPath, value, f); err != nil {
			return err
		}
	}
	return nil
}

func (c Contract) validateValue(path string, value any, f Field) error {
	mismatch := func(got any) error {
		return &ValidationError{
			Contract: c.Name,
			Path:     path,
			Reason:   fmt.Sprintf("expected %s, got %s", f.Kind, jsonTypeName(got)),
		}
	}

	switch f.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return mismatch(value)
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return mismatch(value)
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return mismatch(value)
		}
	case KindArray:
		items, ok := value.([]any)
		if !ok {
			return mismatch(value)
		}
		if f.Items == nil {
			return nil
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return &ValidationError{Contract: c.Name, Path: itemPath, Reason: "null array element"}
			}
			if err := c.validateValue(itemPath, item, *f.Items); err != nil {
				return err
			}
		}
	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return mismatch(value)
		}
		return c.validateObject(path, obj, f.Fields)
	}
	return nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// JSONSchema renders the contract as a JSON Schema document, for providers that accept one
func (c Contract) JSONSchema() map[string]any {
	return objectSchema(c.Fields)
}

func objectSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := requiredNames(fields); len(req) > 0 {
		out["required"] = req
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	switch f.Kind {
	case KindObject:
		return objectSchema(f.Fields)
	case KindArray:
		out := map[string]any{"type": "array"}
		if f.Items != nil {
			out["items"] = fieldSchema(*f.Items)
		}
		return out
	default:
		out := map[string]any{"type": f.Kind.String()}
		if len(f.Enum) > 0 {
			out["enum"] = f.Enum
		}
		return out
	}
}

// Describe renders a compact human-readable outline of the contract for prompt text
func (c Contract) Describe() string {
	var b strings.Builder
	describeFields(&b, c.Fields, "")
	return b.String()
}

func describeFields(b *strings.Builder, fields []Field, indent string) {
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(b, "%s- %s (%s, %s)", indent, f.Name, f.Kind, req)
		if len(f.Enum) > 0 {
			fmt.Fprintf(b, " one of: %s", strings.Join(f.Enum, " | "))
		}
		b.WriteString("\n")
		switch {
		case f.Kind == KindObject:
			describeFields(b, f.Fields, indent+"  ")
		case f.Kind == KindArray && f.Items != nil && f.Items.Kind == KindObject:
			describeFields(b, f.Items.Fields, indent+"  ")
		}
	}
}
