package model

// Metadata holds best-effort hints scraped from a product page. Each field is
// nil when nothing was found.
type Metadata struct {
	Title *string `json:"title"`
	Image *string `json:"image"`
	Price *string `json:"price"`
}
