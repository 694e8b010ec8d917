// Package schema maps a tool's input schema to form field descriptors.
package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bobmcallan/mcp-workbench/internal/mcp"
)

// FieldKind is the input control used for a property.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindCheckbox
	// KindUnsupported marks properties that can only be entered as raw JSON.
	KindUnsupported
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindCheckbox:
		return "checkbox"
	default:
		return "unsupported"
	}
}

// ForcedRawNotice is shown when a tool's form is locked to raw JSON entry.
const ForcedRawNotice = "Note: This tool has complex inputs, so we defaulted to JSON mode."

// Field describes one rendered input.
type Field struct {
	Name        string
	Kind        FieldKind
	Type        string
	Required    bool
	Description string
	Notice      string
}

// Form is the field list for a tool. RawOnly is set when any top-level
// property is complex, in which case the whole form uses raw JSON.
type Form struct {
	Fields  []Field
	RawOnly bool
}

// IsComplex reports whether a property cannot be rendered as a single
// scalar input.
func IsComplex(node mcp.SchemaNode) bool {
	return node.Type == "object" || node.Type == "array" || node.Ref != ""
}

// MapField produces the descriptor for one property.
func MapField(name string, node mcp.SchemaNode, required bool) Field {
	f := Field{
		Name:        name,
		Type:        node.Type,
		Required:    required,
		Description: node.Description,
	}

	switch {
	case node.Ref != "":
		f.Kind = KindUnsupported
	case node.Type == "string":
		f.Kind = KindText
	case node.Type == "number", node.Type == "integer":
		f.Kind = KindNumber
	case node.Type == "boolean":
		f.Kind = KindCheckbox
	default:
		f.Kind = KindUnsupported
	}

	if f.Kind == KindUnsupported {
		typ := node.Type
		if typ == "" && node.Ref != "" {
			typ = "$ref"
		}
		if typ == "" {
			typ = "unknown"
		}
		f.Notice = fmt.Sprintf("Field %s is complex (%s). Please use Raw JSON mode to input this value.", name, typ)
	}
	return f
}

// BuildForm maps every top-level property of the tool's input schema.
func BuildForm(tool mcp.Tool) Form {
	var form Form
	in := tool.InputSchema
	if n := in.PropertyCount(); n > 0 {
		form.Fields = make([]Field, 0, n)
	}
	in.EachProperty(func(name string, prop mcp.SchemaNode) {
		form.Fields = append(form.Fields, MapField(name, prop, in.IsRequired(name)))
		if IsComplex(prop) {
			form.RawOnly = true
		}
	})
	return form
}

// CoerceNumber converts numeric field text to a number. Empty, unparsable or
// infinite input yields NaN, which the payload carries as null.
func CoerceNumber(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// CoerceBool converts checkbox form values to a boolean.
func CoerceBool(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// Coerce converts field text into the value stored in the argument map.
// Unsupported fields keep their text.
func (f Field) Coerce(text string) any {
	switch f.Kind {
	case KindNumber:
		return CoerceNumber(text)
	case KindCheckbox:
		return CoerceBool(text)
	default:
		return text
	}
}
