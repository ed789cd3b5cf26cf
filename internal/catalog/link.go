package catalog

import (
	"net/url"
	"strings"
)

// AffiliateParam is the query parameter carrying the affiliate tag.
const AffiliateParam = "aff_id"

// GenerateLink appends the affiliate tag to productURL. An empty tag returns
// productURL unchanged.
func GenerateLink(productURL, tag string) string {
	if tag == "" {
		return productURL
	}
	sep := "?"
	if strings.Contains(productURL, "?") {
		sep = "&"
	}
	return productURL + sep + AffiliateParam + "=" + strings.ReplaceAll(url.QueryEscape(tag), "+", "%20")
}
