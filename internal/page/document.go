package page

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptDocument means the stored value is not a valid page document.
var ErrCorruptDocument = errors.New("stored page data is corrupted")

// Document is the page-builder data tree stored verbatim as the contract value.
// Keys the renderer does not know about are kept in Extra and written back unchanged.
// Zones stays nil when the stored document has no "zones" key.
type Document struct {
	Content []Node
	Root    Root
	Zones   map[string][]Node
	Extra   map[string]json.RawMessage
}

// Node is one content block: a component type and its property bag.
type Node struct {
	Type  string
	Props map[string]any
	Extra map[string]json.RawMessage
}

// Root carries page level properties.
type Root struct {
	Props map[string]any
	Extra map[string]json.RawMessage
}

// ID returns the block id assigned by the editor, or "".
func (n Node) ID() string {
	if id, ok := n.Props["id"].(string); ok {
		return id
	}
	return ""
}

// EmptyDocument 返回编辑器的默认空文档 {content: [], root: {props: {}}}。
func EmptyDocument() *Document {
	return &Document{Content: []Node{}, Root: Root{Props: map[string]any{}}}
}

// ParseDocument decodes raw as a page document. Numbers are kept as json.Number and
// unknown keys are kept so that re-encoding reproduces the stored value.
func ParseDocument(raw string) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrCorruptDocument)
	}
	doc.normalize()
	return &doc, nil
}

// Marshal encodes the document as compact JSON.
func (d *Document) Marshal() (string, error) {
	if d == nil {
		d = EmptyDocument()
	}
	d.normalize()
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Zone returns the nodes placed in a drop zone of the block with the given id.
func (d *Document) Zone(nodeID, zone string) []Node {
	if d == nil || d.Zones == nil {
		return nil
	}
	return d.Zones[nodeID+":"+zone]
}

// UnmarshalJSON decodes the known keys and keeps every other key in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}
	*d = Document{}
	if err := takeField(fields, "content", &d.Content); err != nil {
		return err
	}
	if err := takeField(fields, "root", &d.Root); err != nil {
		return err
	}
	if err := takeField(fields, "zones", &d.Zones); err != nil {
		return err
	}
	d.Extra, err = extraFields(fields)
	return err
}

// MarshalJSON writes the known keys followed by Extra.
func (d Document) MarshalJSON() ([]byte, error) {
	content := d.Content
	if content == nil {
		content = []Node{}
	}
	fields := map[string]any{"content": content, "root": d.Root}
	if d.Zones != nil {
		fields["zones"] = d.Zones
	}
	return marshalObject(fields, d.Extra)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}
	*n = Node{}
	if err := takeField(fields, "type", &n.Type); err != nil {
		return err
	}
	if err := takeField(fields, "props", &n.Props); err != nil {
		return err
	}
	n.Extra, err = extraFields(fields)
	return err
}

func (n Node) MarshalJSON() ([]byte, error) {
	return marshalObject(map[string]any{"type": n.Type, "props": propsOrEmpty(n.Props)}, n.Extra)
}

func (r *Root) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}
	*r = Root{}
	if err := takeField(fields, "props", &r.Props); err != nil {
		return err
	}
	r.Extra, err = extraFields(fields)
	return err
}

func (r Root) MarshalJSON() ([]byte, error) {
	return marshalObject(map[string]any{"props": propsOrEmpty(r.Props)}, r.Extra)
}

func splitObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// takeField decodes fields[key] into dst, keeping numbers as json.Number, and removes it.
func takeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func extraFields(fields map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	extra := make(map[string]json.RawMessage, len(fields))
	for key, raw := range fields {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		extra[key] = json.RawMessage(buf.Bytes())
	}
	return extra, nil
}

func marshalObject(fields map[string]any, extra map[string]json.RawMessage) ([]byte, error) {
	for key, raw := range extra {
		if _, known := fields[key]; !known {
			fields[key] = raw
		}
	}
	return json.Marshal(fields)
}

func propsOrEmpty(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return props
}

func (d *Document) normalize() {
	if d.Content == nil {
		d.Content = []Node{}
	}
	if d.Root.Props == nil {
		d.Root.Props = map[string]any{}
	}
	for i := range d.Content {
		if d.Content[i].Props == nil {
			d.Content[i].Props = map[string]any{}
		}
	}
	for key, nodes := range d.Zones {
		for i := range nodes {
			if nodes[i].Props == nil {
				nodes[i].Props = map[string]any{}
			}
		}
		d.Zones[key] = nodes
	}
}
