// Package metadata scrapes best-effort product hints (title, image, price)
// from a product page.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/iyhunko/affiliate-catalog/internal/model"
)

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxPageBytes = 2 << 20
)

var structuredPricePattern = regexp.MustCompile(`(?i)"price"\s*:\s*"?(\d[\d.,]*)"?`)

// Page is a parsed product page handed to each extractor.
type Page struct {
	Doc *goquery.Document
	Raw []byte
}

// Extractor returns a candidate value, or "" when it found nothing.
type Extractor func(page *Page) string

var (
	titleChain = []Extractor{MetaTag("og:title"), MetaTag("twitter:title"), TitleElement}
	imageChain = []Extractor{MetaTag("og:image"), MetaTag("twitter:image")}
	priceChain = []Extractor{StructuredPrice, ItempropPrice}
)

// Fetcher downloads pages and runs the extractor chains over them.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests give up after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Lookup fetches pageURL and extracts its metadata. Only a failed fetch is an
// error; missing fields are reported as nil.
func (f *Fetcher) Lookup(ctx context.Context, pageURL string) (model.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("failed to build request: %w", err)
	}

	// Common headers to mimic a real browser
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := f.client.Do(req)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return model.Metadata{}, fmt.Errorf("failed to read page: %w", err)
	}

	slog.Debug("fetched product page", slog.String("url", pageURL), slog.Int("status", res.StatusCode), slog.Int("bytes", len(body)))
	return Extract(body)
}

// Extract runs the title, image and price chains over raw HTML.
func Extract(html []byte) (model.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return model.Metadata{}, fmt.Errorf("failed to parse page: %w", err)
	}
	page := &Page{Doc: doc, Raw: html}

	return model.Metadata{
		Title: FirstMatch(page, titleChain...),
		Image: FirstMatch(page, imageChain...),
		Price: FirstMatch(page, priceChain...),
	}, nil
}

// FirstMatch evaluates extractors in order and returns the first non-empty value.
func FirstMatch(page *Page, extractors ...Extractor) *string {
	for _, extract := range extractors {
		if v := strings.TrimSpace(extract(page)); v != "" {
			return &v
		}
	}
	return nil
}

// MetaTag matches <meta property=name> or <meta name=name>, case-insensitively.
func MetaTag(name string) Extractor {
	return func(page *Page) string {
		var content string
		page.Doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			property := s.AttrOr("property", s.AttrOr("name", ""))
			if !strings.EqualFold(property, name) {
				return true
			}
			content = strings.TrimSpace(s.AttrOr("content", ""))
			return content == ""
		})
		return content
	}
}

// TitleElement returns the text of the first <title> element.
func TitleElement(page *Page) string {
	return page.Doc.Find("title").First().Text()
}

// StructuredPrice finds a JSON-LD style "price": "123.45" pair in the raw page.
func StructuredPrice(page *Page) string {
	m := structuredPricePattern.FindSubmatch(page.Raw)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// ItempropPrice reads the content attribute of the first itemprop="price" element.
func ItempropPrice(page *Page) string {
	return page.Doc.Find(`[itemprop="price"]`).First().AttrOr("content", "")
}
