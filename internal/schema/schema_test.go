package schema

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/bobmcallan/mcp-workbench/internal/mcp"
)

func mustTool(t *testing.T, data string) mcp.Tool {
	t.Helper()
	var tool mcp.Tool
	if err := json.Unmarshal([]byte(data), &tool); err != nil {
		t.Fatalf("invalid tool JSON: %v", err)
	}
	return tool
}

func TestMapField_Kinds(t *testing.T) {
	tests := []struct {
		node mcp.SchemaNode
		want FieldKind
	}{
		{mcp.SchemaNode{Type: "string"}, KindText},
		{mcp.SchemaNode{Type: "number"}, KindNumber},
		{mcp.SchemaNode{Type: "integer"}, KindNumber},
		{mcp.SchemaNode{Type: "boolean"}, KindCheckbox},
		{mcp.SchemaNode{Type: "object"}, KindUnsupported},
		{mcp.SchemaNode{Type: "array"}, KindUnsupported},
		{mcp.SchemaNode{Ref: "#/defs/X"}, KindUnsupported},
		{mcp.SchemaNode{Type: "null"}, KindUnsupported},
		{mcp.SchemaNode{}, KindUnsupported},
	}

	for _, tt := range tests {
		f := MapField("f", tt.node, false)
		if f.Kind != tt.want {
			t.Errorf("type %q ref %q: expected %s, got %s", tt.node.Type, tt.node.Ref, tt.want, f.Kind)
		}
		if (f.Kind == KindUnsupported) != (f.Notice != "") {
			t.Errorf("type %q: notice %q does not match kind %s", tt.node.Type, f.Notice, f.Kind)
		}
	}
}

func TestMapField_NoticeText(t *testing.T) {
	f := MapField("items", mcp.SchemaNode{Type: "array"}, false)
	want := "Field items is complex (array). Please use Raw JSON mode to input this value."
	if f.Notice != want {
		t.Errorf("expected %q, got %q", want, f.Notice)
	}
}

func TestBuildForm_PrimitiveSchema(t *testing.T) {
	tool := mustTool(t, `{"name":"echo","inputSchema":{"type":"object","properties":{"msg":{"type":"string","description":"Message"}},"required":["msg"]}}`)

	form := BuildForm(tool)
	if form.RawOnly {
		t.Error("expected structured form")
	}
	if len(form.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(form.Fields))
	}
	f := form.Fields[0]
	if f.Name != "msg" || f.Kind != KindText || !f.Required || f.Description != "Message" {
		t.Errorf("unexpected field: %+v", f)
	}
}

func TestBuildForm_ComplexForcesRaw(t *testing.T) {
	tests := []string{
		`{"name":"t","inputSchema":{"properties":{"a":{"type":"string"},"b":{"type":"object"}}}}`,
		`{"name":"t","inputSchema":{"properties":{"a":{"type":"array"},"b":{"type":"number"}}}}`,
		`{"name":"t","inputSchema":{"properties":{"a":{"$ref":"#/x"}}}}`,
	}
	for _, data := range tests {
		if form := BuildForm(mustTool(t, data)); !form.RawOnly {
			t.Errorf("expected raw-only form for %s", data)
		}
	}
}

func TestBuildForm_NoProperties(t *testing.T) {
	form := BuildForm(mustTool(t, `{"name":"ping","inputSchema":{"type":"object"}}`))
	if form.RawOnly || len(form.Fields) != 0 {
		t.Errorf("expected empty structured form, got %+v", form)
	}
}

func TestBuildForm_KeepsDeclarationOrder(t *testing.T) {
	form := BuildForm(mustTool(t, `{"name":"t","inputSchema":{"properties":{"z":{"type":"string"},"a":{"type":"string"},"m":{"type":"string"}}}}`))
	var names []string
	for _, f := range form.Fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "z,a,m" {
		t.Errorf("expected z,a,m got %v", names)
	}
}

func TestCoerceNumber(t *testing.T) {
	if v := CoerceNumber("42"); v != 42 {
		t.Errorf("expected 42, got %v", v)
	}
	if v := CoerceNumber(" -1.5 "); v != -1.5 {
		t.Errorf("expected -1.5, got %v", v)
	}
	if v := CoerceNumber(""); !math.IsNaN(v) {
		t.Errorf("expected NaN for empty, got %v", v)
	}
	if v := CoerceNumber("abc"); !math.IsNaN(v) {
		t.Errorf("expected NaN for text, got %v", v)
	}
	for _, text := range []string{"Inf", "-Infinity", "+inf", "1e400"} {
		if v := CoerceNumber(text); !math.IsNaN(v) {
			t.Errorf("expected NaN for %q, got %v", text, v)
		}
	}
}

func TestField_Coerce(t *testing.T) {
	if v := (Field{Kind: KindCheckbox}).Coerce("true"); v != true {
		t.Errorf("expected true, got %v", v)
	}
	if v := (Field{Kind: KindCheckbox}).Coerce("false"); v != false {
		t.Errorf("expected false, got %v", v)
	}
	if v := (Field{Kind: KindNumber}).Coerce("7"); v != 7.0 {
		t.Errorf("expected 7, got %v", v)
	}
	if v := (Field{Kind: KindText}).Coerce("hi"); v != "hi" {
		t.Errorf("expected hi, got %v", v)
	}
}
