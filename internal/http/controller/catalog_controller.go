package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/affiliate-catalog/internal/http/api"
	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/iyhunko/affiliate-catalog/internal/service"
	"github.com/iyhunko/affiliate-catalog/internal/store"
)

// CatalogService is the part of service.CatalogService the handlers use.
type CatalogService interface {
	ListProducts(ctx context.Context) model.Catalog
	UpdateProducts(ctx context.Context, req service.UpdateRequest) (*store.CommitResult, error)
	LookupMetadata(ctx context.Context, pageURL string) (model.Metadata, error)
}

// CatalogController handles HTTP requests for catalog operations.
type CatalogController struct {
	catalogService CatalogService
}

// NewCatalogController creates a new CatalogController with the given catalog service.
func NewCatalogController(catalogService CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

// GetProducts handles the HTTP GET request for the whole catalog. It always
// answers 200; an unreadable catalog is served as an empty array.
func (cc *CatalogController) GetProducts(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, cc.catalogService.ListProducts(c.Request.Context()))
}

// UpdateProducts handles the HTTP POST request replacing the whole catalog.
func (cc *CatalogController) UpdateProducts(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	var req api.UpdateProductsRequest
	bodyErr := c.ShouldBindJSON(&req)
	if errors.Is(bodyErr, io.EOF) {
		bodyErr = nil
	}
	if bodyErr != nil {
		req = api.UpdateProductsRequest{}
	}

	secret := c.GetHeader(api.AdminPasswordHeader)
	if secret == "" {
		secret = req.AdminPassword
	}

	result, err := cc.catalogService.UpdateProducts(c.Request.Context(), service.UpdateRequest{
		Secret:   secret,
		Products: req.Products,
		Message:  req.Message,
	})
	if err != nil {
		cc.writeUpdateError(c, err, bodyErr)
		return
	}

	c.JSON(http.StatusOK, api.UpdateProductsResponse{OK: true, Result: result})
}

func (cc *CatalogController) writeUpdateError(c *gin.Context, err, bodyErr error) {
	var rejected *store.RejectedWriteError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, service.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server not configured (no token)"})
	case errors.Is(err, service.ErrMissingProducts) && bodyErr != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	case errors.Is(err, service.ErrMissingProducts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing products"})
	case errors.Is(err, service.ErrDuplicateID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rejected):
		slog.Warn("Catalog write rejected by content host", slog.Int("status", rejected.StatusCode))
		c.Data(rejected.StatusCode, "application/json; charset=utf-8", rejected.Body)
	default:
		slog.Error("Failed to update catalog", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// FetchMetadata handles the HTTP GET request for product page metadata.
func (cc *CatalogController) FetchMetadata(c *gin.Context) {
	pageURL := strings.TrimSpace(c.Query("url"))
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url"})
		return
	}

	meta, err := cc.catalogService.LookupMetadata(c.Request.Context(), pageURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, meta)
}
