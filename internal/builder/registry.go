package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FieldKind is the editor control used for a prop.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
	FieldRadio    FieldKind = "radio"
)

// Option is one choice of a select or radio field.
type Option struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// Field describes one editable prop.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label,omitempty"`
	Kind    FieldKind `json:"type"`
	Options []Option  `json:"options,omitempty"`
}

// PrefetchFunc loads remote data for a node before the page is rendered.
type PrefetchFunc func(ctx context.Context, props Props, opts RenderOptions, key string) (interface{}, error)

// RenderFunc renders one node.
type RenderFunc func(rc *RenderContext) (template.HTML, error)

// Component is a block type available in documents.
type Component struct {
	Name     string
	Fields   []Field
	Defaults Props
	Prefetch PrefetchFunc
	Render   RenderFunc
}

// Registry 保存页面可用的组件，渲染和编辑器都从这里读取。
type Registry struct {
	components map[string]*Component
	order      []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]*Component)}
}

// Register adds c, replacing a component with the same name.
func (r *Registry) Register(c *Component) {
	if _, exists := r.components[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.components[c.Name] = c
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (*Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Names lists components in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// PaletteEntry is what the editor needs to offer a component.
type PaletteEntry struct {
	Name     string  `json:"name"`
	Fields   []Field `json:"fields"`
	Defaults Props   `json:"defaultProps"`
}

// Palette lists every component with its fields and defaults.
func (r *Registry) Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(r.order))
	for _, name := range r.order {
		c := r.components[name]
		out = append(out, PaletteEntry{Name: c.Name, Fields: c.Fields, Defaults: c.Defaults})
	}
	return out
}

// Props are a node's properties merged over its component defaults.
type Props map[string]interface{}

func mergeProps(defaults, props map[string]interface{}) Props {
	out := make(Props, len(defaults)+len(props))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Keys returns the prop names in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the prop as text; numbers and booleans are formatted.
func (p Props) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the prop as an integer, or def when it is missing or not numeric.
func (p Props) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(math.Round(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(math.Round(f))
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Bool accepts true, "true" and "yes".
func (p Props) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// Align returns left, center or right.
func (p Props) Align() string {
	switch a := p.String("align"); a {
	case "center", "right":
		return a
	default:
		return "left"
	}
}

var alignOptions = []Option{
	{Label: "Left", Value: "left"},
	{Label: "Center", Value: "center"},
	{Label: "Right", Value: "right"},
}

func alignField() Field {
	return Field{Name: "align", Kind: FieldSelect, Options: alignOptions}
}
