// Package mcp holds the manifest data model and the client that talks to a
// remote tool server over its manifest and call endpoints.
package mcp

import (
	"bytes"
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Remote endpoint paths, relative to the server base URL.
const (
	ManifestPath = "/.well-known/mcp-manifest.json"
	CallPath     = "/mcp/call"
)

// Manifest is the server's catalog of callable tools.
type Manifest struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Tools   []Tool `json:"tools"`
}

// Tool looks up a tool by name.
func (m *Manifest) Tool(name string) (Tool, bool) {
	if m == nil {
		return Tool{}, false
	}
	for _, t := range m.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Tool is a named, schema-described remote operation.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	InputSchema SchemaNode `json:"inputSchema"`
}

// SchemaNode is the subset of JSON Schema the workbench interprets.
// Properties keep the order in which the server listed them.
type SchemaNode struct {
	Type        string                                     `json:"type,omitempty"`
	Properties  *orderedmap.OrderedMap[string, SchemaNode] `json:"properties,omitempty"`
	Required    []string                                   `json:"required,omitempty"`
	Description string                                     `json:"description,omitempty"`
	Ref         string                                     `json:"$ref,omitempty"`
}

type schemaNodeJSON struct {
	Type        json.RawMessage `json:"type"`
	Properties  json.RawMessage `json:"properties"`
	Required    json.RawMessage `json:"required"`
	Description json.RawMessage `json:"description"`
	Ref         json.RawMessage `json:"$ref"`
}

// UnmarshalJSON accepts any JSON value and never fails on the shape of a
// keyword. Non-object schemas decode to the zero node, a type union such as
// ["string","null"] resolves to its first non-null member, and keywords of an
// unexpected kind (draft-3 "required": true, a non-string description,
// properties given as an array) are ignored.
func (n *SchemaNode) UnmarshalJSON(data []byte) error {
	*n = SchemaNode{}

	if !isObject(data) {
		return nil
	}

	var raw schemaNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.Type = decodeType(raw.Type)
	n.Properties = decodeProperties(raw.Properties)
	n.Required = decodeStrings(raw.Required)
	n.Description = decodeString(raw.Description)
	n.Ref = decodeString(raw.Ref)
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeType(raw json.RawMessage) string {
	if t := decodeString(raw); t != "" {
		return t
	}
	for _, t := range decodeStrings(raw) {
		if t != "null" {
			return t
		}
	}
	return ""
}

func decodeString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// decodeStrings keeps the string members of an array and drops the rest.
func decodeStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func decodeProperties(raw json.RawMessage) *orderedmap.OrderedMap[string, SchemaNode] {
	if !isObject(raw) {
		return nil
	}
	props := orderedmap.New[string, SchemaNode]()
	if err := json.Unmarshal(raw, props); err != nil {
		return nil
	}
	return props
}

// IsRequired reports whether name is listed in the node's required set.
func (n SchemaNode) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// PropertyCount returns the number of declared properties.
func (n SchemaNode) PropertyCount() int {
	if n.Properties == nil {
		return 0
	}
	return n.Properties.Len()
}

// EachProperty calls fn for each property in declaration order.
func (n SchemaNode) EachProperty(fn func(name string, prop SchemaNode)) {
	if n.Properties == nil {
		return
	}
	for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// FilterTools returns the tools whose name or description contains term,
// ignoring case. An empty term returns all tools.
func FilterTools(tools []Tool, term string) []Tool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tools
	}
	var out []Tool
	for _, t := range tools {
		if strings.Contains(strings.ToLower(t.Name), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t)
		}
	}
	return out
}

// CallRequest is the body posted to the call endpoint. The tool name and the
// arguments are each sent under two keys because servers disagree on naming:
// some read "tool"/"arguments", others "name"/"inputs".
type CallRequest struct {
	Tool      string         `json:"tool"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Inputs    map[string]any `json:"inputs"`
	Context   map[string]any `json:"context"`
}

// NewCallRequest builds the dual-keyed call body.
func NewCallRequest(name string, args map[string]any) CallRequest {
	if args == nil {
		args = map[string]any{}
	}
	return CallRequest{
		Tool:      name,
		Name:      name,
		Arguments: args,
		Inputs:    args,
		Context:   map[string]any{},
	}
}

// Content is one entry of a call result's content list.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallResult is a successful call response. Raw holds the body exactly as the
// server sent it; Content and IsError are decoded from it when present.
type CallResult struct {
	Raw        json.RawMessage
	Content    []Content
	IsError    bool
	StatusCode int
	Status     string
}
