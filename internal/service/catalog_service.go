package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iyhunko/affiliate-catalog/internal/auth"
	"github.com/iyhunko/affiliate-catalog/internal/metrics"
	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/iyhunko/affiliate-catalog/internal/sqs"
	"github.com/iyhunko/affiliate-catalog/internal/store"
)

// DefaultCommitMessage is used when a write carries no message.
const DefaultCommitMessage = "Update products via web UI"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotConfigured   = errors.New("server not configured (no token)")
	ErrMissingProducts = errors.New("missing products")
	ErrDuplicateID     = errors.New("duplicate product id")
)

// MetadataLookup fetches product page metadata.
type MetadataLookup interface {
	Lookup(ctx context.Context, pageURL string) (model.Metadata, error)
}

// Notifier is told about every committed catalog.
type Notifier interface {
	Notify(ctx context.Context, msg sqs.CatalogMessage)
}

// UpdateRequest is a whole-catalog write. A nil Products means the field was
// absent; an empty non-nil catalog is a valid write.
type UpdateRequest struct {
	Secret   string
	Products model.Catalog
	Message  string
}

type CatalogService struct {
	store         store.Store
	lookup        MetadataLookup
	notifier      Notifier
	adminPassword string
	now           func() time.Time
}

// NewCatalogService wires the service. notifier may be nil.
func NewCatalogService(s store.Store, lookup MetadataLookup, notifier Notifier, adminPassword string) *CatalogService {
	return &CatalogService{
		store:         s,
		lookup:        lookup,
		notifier:      notifier,
		adminPassword: adminPassword,
		now:           time.Now,
	}
}

// ListProducts returns the stored catalog, or an empty one when it cannot be read.
func (cs *CatalogService) ListProducts(ctx context.Context) model.Catalog {
	catalog, err := cs.store.Fetch(ctx)
	if err != nil {
		metrics.CatalogReads.WithLabelValues(metrics.OutcomeError).Inc()
		slog.Error("Failed to fetch catalog", slog.Any("err", err))
		return model.Catalog{}
	}
	metrics.CatalogReads.WithLabelValues(metrics.OutcomeOK).Inc()
	return catalog
}

// UpdateProducts authorizes and commits a whole catalog.
func (cs *CatalogService) UpdateProducts(ctx context.Context, req UpdateRequest) (*store.CommitResult, error) {
	if auth.Authorize(req.Secret, cs.adminPassword) != auth.Authorized {
		metrics.CatalogWriteRejections.WithLabelValues(metrics.ReasonUnauthorized).Inc()
		return nil, ErrUnauthorized
	}
	if !cs.store.CanWrite() {
		metrics.CatalogWriteRejections.WithLabelValues(metrics.ReasonNotConfigured).Inc()
		return nil, ErrNotConfigured
	}
	if req.Products == nil {
		metrics.CatalogWriteRejections.WithLabelValues(metrics.ReasonInvalid).Inc()
		return nil, ErrMissingProducts
	}
	if id, dup := req.Products.DuplicateID(); dup {
		metrics.CatalogWriteRejections.WithLabelValues(metrics.ReasonInvalid).Inc()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = DefaultCommitMessage
	}

	result, err := cs.store.Commit(ctx, req.Products, message)
	if err != nil {
		if errors.Is(err, store.ErrNotConfigured) {
			metrics.CatalogWriteRejections.WithLabelValues(metrics.ReasonNotConfigured).Inc()
			return nil, ErrNotConfigured
		}
		metrics.CatalogWriteRejections.WithLabelValues(metrics.ReasonHost).Inc()
		return nil, err
	}
	metrics.CatalogWrites.Inc()

	if cs.notifier != nil {
		cs.notifier.Notify(ctx, sqs.CatalogMessage{
			Action:       sqs.ActionUpdated,
			Message:      message,
			ProductCount: len(req.Products),
			Revision:     result.Revision,
			CommitSHA:    result.CommitSHA,
			CommittedAt:  cs.now().UTC(),
		})
	}

	return result, nil
}

// LookupMetadata fetches metadata for a product page.
func (cs *CatalogService) LookupMetadata(ctx context.Context, pageURL string) (model.Metadata, error) {
	meta, err := cs.lookup.Lookup(ctx, pageURL)
	if err != nil {
		metrics.MetadataLookups.WithLabelValues(metrics.OutcomeError).Inc()
		return model.Metadata{}, err
	}
	metrics.MetadataLookups.WithLabelValues(metrics.OutcomeOK).Inc()
	return meta, nil
}
