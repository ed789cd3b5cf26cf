package model

import (
	"strings"

	"github.com/google/uuid"
)

// Product represents one affiliate listing in the catalog.
type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	Image string `json:"image"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

// InitMeta assigns a new identifier to the product.
func (p *Product) InitMeta() {
	p.ID = uuid.NewString()
}

// Normalize trims surrounding whitespace from every field.
func (p *Product) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Price = strings.TrimSpace(p.Price)
	p.Image = strings.TrimSpace(p.Image)
	p.URL = strings.TrimSpace(p.URL)
	p.Tag = strings.TrimSpace(p.Tag)
}

// MissingFields returns the names of required fields that are empty.
func (p Product) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.URL) == "" {
		missing = append(missing, "url")
	}
	return missing
}
