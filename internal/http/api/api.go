// Package api holds the catalog HTTP wire types shared by the handlers and
// the client.
package api

import (
	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/iyhunko/affiliate-catalog/internal/store"
)

// AdminPasswordHeader carries the shared secret on write requests.
const AdminPasswordHeader = "X-Admin-Password"

// UpdateProductsRequest represents the request body for a catalog write.
type UpdateProductsRequest struct {
	Products      model.Catalog `json:"products"`
	Message       string        `json:"message"`
	AdminPassword string        `json:"adminPassword"`
}

// UpdateProductsResponse represents the response body for a successful write.
type UpdateProductsResponse struct {
	OK     bool                `json:"ok"`
	Result *store.CommitResult `json:"result"`
}
