// Package form holds the draft input for the selected tool and turns it into
// call arguments.
package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bobmcallan/mcp-workbench/internal/mcp"
	"github.com/bobmcallan/mcp-workbench/internal/schema"
)

var (
	// ErrInvalidJSON is returned by Submit when the raw buffer is not a JSON object.
	ErrInvalidJSON = errors.New("Invalid JSON")
	// ErrModeLocked is returned when toggling a form whose schema forces raw JSON.
	ErrModeLocked = errors.New("form is locked to raw JSON mode")
	// ErrUnknownField is returned by SetField for names not in the schema.
	ErrUnknownField = errors.New("unknown field")
)

// State is the lifecycle position of the draft.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	default:
		return "empty"
	}
}

// Mode selects which input path a submission uses.
type Mode int

const (
	ModeFields Mode = iota
	ModeRaw
)

func (m Mode) String() string {
	if m == ModeRaw {
		return "raw"
	}
	return "fields"
}

// ParseMode converts "raw"/"fields" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw":
		return ModeRaw, nil
	case "fields", "form":
		return ModeFields, nil
	}
	return ModeFields, fmt.Errorf("unknown form mode %q", s)
}

const emptyRaw = "{}"

// Controller is the draft for one selected tool. It is not safe for
// concurrent use; the workbench serializes access.
type Controller struct {
	tool     string
	form     schema.Form
	fields   map[string]schema.Field
	state    State
	mode     Mode
	args     map[string]any
	text     map[string]string
	raw      string
	parseErr string
}

// NewController returns a controller with no tool selected.
func NewController() *Controller {
	c := &Controller{}
	c.Reset(mcp.Tool{})
	return c
}

// Reset discards all draft state and rebuilds the form for tool.
func (c *Controller) Reset(tool mcp.Tool) {
	c.tool = tool.Name
	c.form = schema.BuildForm(tool)
	c.fields = make(map[string]schema.Field, len(c.form.Fields))
	for _, f := range c.form.Fields {
		c.fields[f.Name] = f
	}
	c.state = StateEmpty
	c.mode = ModeFields
	if c.form.RawOnly {
		c.mode = ModeRaw
	}
	c.args = make(map[string]any)
	c.text = make(map[string]string)
	c.raw = emptyRaw
	c.parseErr = ""
}

// SetField merges one coerced value into the argument map.
func (c *Controller) SetField(name, text string) error {
	f, ok := c.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	c.args[name] = f.Coerce(text)
	c.text[name] = text
	c.touch()
	return nil
}

// MergeField is SetField for whole-form posts: a field the user never
// touched that still holds its blank input (empty text, unticked box) is
// left out of the argument map.
func (c *Controller) MergeField(name, text string) error {
	f, ok := c.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if _, touched := c.args[name]; !touched && isBlankInput(f, text) {
		return nil
	}
	return c.SetField(name, text)
}

func isBlankInput(f schema.Field, text string) bool {
	if f.Kind == schema.KindCheckbox {
		return !schema.CoerceBool(text)
	}
	return text == ""
}

// SetRaw replaces the raw JSON buffer and clears any parse error.
func (c *Controller) SetRaw(text string) {
	c.raw = text
	c.parseErr = ""
	c.touch()
}

// ToggleMode flips between structured fields and raw JSON.
func (c *Controller) ToggleMode() error {
	if c.mode == ModeRaw {
		return c.SetMode(ModeFields)
	}
	return c.SetMode(ModeRaw)
}

// SetMode selects the input mode. Raw-only forms cannot leave raw mode.
func (c *Controller) SetMode(m Mode) error {
	if c.form.RawOnly && m != ModeRaw {
		return ErrModeLocked
	}
	c.mode = m
	return nil
}

// Submit produces the arguments for a call and moves to StateSubmitting.
// In raw mode the buffer must parse to a JSON object; otherwise the parse
// error is recorded and ErrInvalidJSON returned.
func (c *Controller) Submit() (map[string]any, error) {
	var args map[string]any
	if c.mode == ModeRaw {
		parsed, err := parseObject(c.raw)
		if err != nil {
			c.parseErr = ErrInvalidJSON.Error()
			return nil, ErrInvalidJSON
		}
		args = parsed
	} else {
		args = make(map[string]any, len(c.args))
		for k, v := range c.args {
			// NaN is not representable in JSON and goes out as null.
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			args[k] = v
		}
	}

	c.parseErr = ""
	c.state = StateSubmitting
	return args, nil
}

// Finish ends a submission. A draft reset while the call was in flight
// stays empty.
func (c *Controller) Finish() {
	if c.state == StateSubmitting {
		c.state = StateEditing
	}
}

func (c *Controller) touch() {
	if c.state == StateEmpty {
		c.state = StateEditing
	}
}

func parseObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("JSON value is not an object")
	}
	return obj, nil
}

// Tool returns the name of the tool the draft belongs to.
func (c *Controller) Tool() string { return c.tool }

// Form returns the field descriptors.
func (c *Controller) Form() schema.Form { return c.form }

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Mode returns the active input mode.
func (c *Controller) Mode() Mode { return c.mode }

// CanToggle reports whether the user may switch modes.
func (c *Controller) CanToggle() bool { return !c.form.RawOnly }

// Raw returns the raw JSON buffer.
func (c *Controller) Raw() string { return c.raw }

// ParseError returns the last raw JSON parse error, if any.
func (c *Controller) ParseError() string { return c.parseErr }

// Text returns the text last entered for a field.
func (c *Controller) Text(name string) string { return c.text[name] }

// Args returns a copy of the structured argument map.
func (c *Controller) Args() map[string]any {
	out := make(map[string]any, len(c.args))
	for k, v := range c.args {
		out[k] = v
	}
	return out
}
