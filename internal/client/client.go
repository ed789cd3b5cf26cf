// Package client calls the catalog service HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iyhunko/affiliate-catalog/internal/http/api"
	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/iyhunko/affiliate-catalog/internal/store"
)

// APIError is a non-2xx answer from the service. Body holds the response
// verbatim, which for a rejected write is the content host's error.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		if payload.Error != "" {
			return fmt.Sprintf("catalog service returned %d: %s", e.StatusCode, payload.Error)
		}
		if payload.Message != "" {
			return fmt.Sprintf("catalog service returned %d: %s", e.StatusCode, payload.Message)
		}
	}
	return fmt.Sprintf("catalog service returned %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// Client talks to one catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the stored catalog.
func (c *Client) Fetch(ctx context.Context) (model.Catalog, error) {
	var catalog model.Catalog
	if err := c.do(ctx, http.MethodGet, "/api/get-products", nil, nil, &catalog); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = model.Catalog{}
	}
	return catalog, nil
}

// Commit replaces the stored catalog.
func (c *Client) Commit(ctx context.Context, secret string, catalog model.Catalog, message string) (*store.CommitResult, error) {
	if catalog == nil {
		catalog = model.Catalog{}
	}
	body, err := json.Marshal(api.UpdateProductsRequest{Products: catalog, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	headers := map[string]string{api.AdminPasswordHeader: secret}
	var resp api.UpdateProductsResponse
	if err := c.do(ctx, http.MethodPost, "/api/update-products", headers, body, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// LookupMetadata asks the service to scrape a product page.
func (c *Client) LookupMetadata(ctx context.Context, pageURL string) (model.Metadata, error) {
	var meta model.Metadata
	path := "/api/fetch-metadata?url=" + url.QueryEscape(pageURL)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &meta); err != nil {
		return model.Metadata{}, err
	}
	return meta, nil
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Catalog service request failed", slog.Any("err", err), slog.String("path", path))
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: data}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
