// Package dataset decodes category-grouped annotation documents and
// flattens them into article indexes.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is one top-level group of a dataset document
type Category struct {
	Name  string
	Items json.RawMessage // normally an array of objects; anything else is skipped
}

// Dataset is the wire format shared by predictions and ground truth files:
// a JSON object mapping category names to arrays of items. Category order
// is preserved from the document.
type Dataset struct {
	Categories []Category
}

// UnmarshalJSON decodes the top-level object while keeping key order
func (d *Dataset) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dataset must be a JSON object of categories")
	}

	var categories []Category
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		categories = append(categories, Category{Name: name, Items: raw})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	d.Categories = categories
	return nil
}

// MarshalJSON writes categories in order
func (d Dataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range d.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(c.Items) == 0 {
			buf.WriteString("[]")
		} else {
			buf.Write(c.Items)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Builder assembles a dataset category by category
type Builder struct {
	order []string
	items map[string][]json.RawMessage
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{items: make(map[string][]json.RawMessage)}
}

// Add appends item under category
func (b *Builder) Add(category string, item any) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if _, ok := b.items[category]; !ok {
		b.order = append(b.order, category)
	}
	b.items[category] = append(b.items[category], raw)
	return nil
}

// Len returns the number of items added
func (b *Builder) Len() int {
	n := 0
	for _, items := range b.items {
		n += len(items)
	}
	return n
}

// Dataset returns the assembled dataset
func (b *Builder) Dataset() (Dataset, error) {
	var d Dataset
	for _, name := range b.order {
		raw, err := json.Marshal(b.items[name])
		if err != nil {
			return Dataset{}, err
		}
		d.Categories = append(d.Categories, Category{Name: name, Items: raw})
	}
	return d, nil
}
