package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog is the ordered product list. Index 0 is displayed first.
type Catalog []Product

// Clone returns a copy that shares no backing array with c.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return Catalog{}
	}
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}

// IndexOf returns the position of the product with the given id, or -1.
func (c Catalog) IndexOf(id string) int {
	for i, p := range c {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the product with the given id.
func (c Catalog) Find(id string) (Product, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c[i], true
	}
	return Product{}, false
}

// Upsert returns a new catalog with p at the front and any previous entry
// carrying the same id dropped.
func (c Catalog) Upsert(p Product) Catalog {
	out := make(Catalog, 0, len(c)+1)
	out = append(out, p)
	for _, existing := range c {
		if existing.ID != p.ID {
			out = append(out, existing)
		}
	}
	return out
}

// Without returns a new catalog that excludes the product with the given id.
func (c Catalog) Without(id string) Catalog {
	out := make(Catalog, 0, len(c))
	for _, p := range c {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// DuplicateID reports the first id that appears more than once.
func (c Catalog) DuplicateID() (string, bool) {
	seen := make(map[string]struct{}, len(c))
	for _, p := range c {
		if _, ok := seen[p.ID]; ok {
			return p.ID, true
		}
		seen[p.ID] = struct{}{}
	}
	return "", false
}

// EncodeCatalog renders the catalog as the persisted document: a pretty printed
// JSON array with two-space indentation.
func EncodeCatalog(c Catalog) ([]byte, error) {
	if c == nil {
		c = Catalog{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return data, nil
}

// DecodeCatalog parses a persisted document. Anything that is not a JSON array
// of products yields an empty catalog.
func DecodeCatalog(data []byte) Catalog {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Catalog{}
	}
	var c Catalog
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return Catalog{}
	}
	if c == nil {
		return Catalog{}
	}
	return c
}
