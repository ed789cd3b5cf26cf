// Package catalog holds the client-side catalog state: the displayed product
// list, an edit buffer and the believed admin session. Every write sends the
// whole list to the backend.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/iyhunko/affiliate-catalog/internal/store"
)

var (
	ErrNotAdmin   = errors.New("admin login required")
	ErrValidation = errors.New("invalid product")
	ErrNotFound   = errors.New("product not found")
)

// ValidationError lists the required fields a product is missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrValidation, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Backend is the remote side of the controller. client.Client implements it.
type Backend interface {
	Fetch(ctx context.Context) (model.Catalog, error)
	Commit(ctx context.Context, secret string, catalog model.Catalog, message string) (*store.CommitResult, error)
	LookupMetadata(ctx context.Context, pageURL string) (model.Metadata, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRollback restores the previous list when a write fails. Without it the
// optimistic list stays in place and only the error reports the divergence.
func WithRollback() Option {
	return func(c *Controller) {
		c.rollback = true
	}
}

// WithCommitMessage sets the message sent with Save and Remove writes.
func WithCommitMessage(message string) Option {
	return func(c *Controller) {
		c.message = message
	}
}

type staged struct {
	product model.Product
	index   int
}

// transition is one optimistic state change. version identifies next so a
// rollback never overwrites a later change.
type transition struct {
	previous        model.Catalog
	previousEditing *staged
	next            model.Catalog
	version         uint64
}

// Controller is safe for concurrent use. Network calls run outside the lock.
type Controller struct {
	backend  Backend
	rollback bool
	message  string

	mu       sync.Mutex
	products model.Catalog
	editing  *staged
	secret   string
	version  uint64
}

// NewController creates a controller with an empty list.
func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		products: model.Catalog{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the list with the backend's catalog. A failed fetch leaves an
// empty list.
func (c *Controller) Load(ctx context.Context) model.Catalog {
	catalog, err := c.backend.Fetch(ctx)
	if err != nil {
		slog.Error("Failed to load catalog", slog.Any("err", err))
		catalog = model.Catalog{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = catalog.Clone()
	c.version++
	return c.products.Clone()
}

// Products returns a copy of the displayed list.
func (c *Controller) Products() model.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products.Clone()
}

// Login stores the secret and marks the session as admin. The backend checks
// the secret on every write; this flag only gates local actions.
func (c *Controller) Login(secret string) bool {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = secret
	return true
}

// Logout forgets the secret.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = ""
}

// IsAdmin reports whether a secret is held.
func (c *Controller) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secret != ""
}

// StageEdit moves a product from the list into the edit buffer. A product
// already in the buffer goes back to its place first.
func (c *Controller) StageEdit(id string) (model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.restoreStagedLocked()
	i := c.products.IndexOf(id)
	if i < 0 {
		return model.Product{}, false
	}
	p := c.products[i]
	c.editing = &staged{product: p, index: i}
	c.products = c.products.Without(id)
	c.version++
	return p, true
}

// Editing returns the product in the edit buffer.
func (c *Controller) Editing() (model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return model.Product{}, false
	}
	return c.editing.product, true
}

// CancelEdit puts the buffered product back where it was.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreStagedLocked()
}

func (c *Controller) restoreStagedLocked() {
	if c.editing == nil {
		return
	}
	p, i := c.editing.product, c.editing.index
	c.editing = nil
	if c.products.IndexOf(p.ID) >= 0 {
		return
	}
	if i > len(c.products) {
		i = len(c.products)
	}
	next := make(model.Catalog, 0, len(c.products)+1)
	next = append(next, c.products[:i]...)
	next = append(next, p)
	next = append(next, c.products[i:]...)
	c.products = next
	c.version++
}

// Save validates p, merges it to the front of the list and writes the whole
// list. The local list changes before the write is attempted.
func (c *Controller) Save(ctx context.Context, p model.Product) (model.Product, error) {
	p.Normalize()
	if missing := p.MissingFields(); len(missing) > 0 {
		return p, &ValidationError{Fields: missing}
	}
	if p.ID == "" {
		p.InitMeta()
	}

	c.mu.Lock()
	if c.secret == "" {
		c.mu.Unlock()
		return p, ErrNotAdmin
	}
	t := c.applyLocked(c.products.Upsert(p), p.ID)
	secret := c.secret
	c.mu.Unlock()

	return p, c.write(ctx, t, secret, c.message)
}

// Remove drops the product with id and writes the whole list. An id that is
// neither listed nor being edited is refused without a write.
func (c *Controller) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.secret == "" {
		c.mu.Unlock()
		return ErrNotAdmin
	}
	if c.products.IndexOf(id) < 0 && (c.editing == nil || c.editing.product.ID != id) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t := c.applyLocked(c.products.Without(id), id)
	secret := c.secret
	c.mu.Unlock()

	return c.write(ctx, t, secret, c.message)
}

// Push writes the current list unchanged, e.g. after Import or Clear.
func (c *Controller) Push(ctx context.Context, message string) error {
	c.mu.Lock()
	if c.secret == "" {
		c.mu.Unlock()
		return ErrNotAdmin
	}
	t := transition{previous: c.products, previousEditing: c.editing, next: c.products, version: c.version}
	secret := c.secret
	c.mu.Unlock()

	if message == "" {
		message = c.message
	}
	return c.write(ctx, t, secret, message)
}

// applyLocked installs next and clears the edit buffer when it holds id.
func (c *Controller) applyLocked(next model.Catalog, id string) transition {
	t := transition{previous: c.products, previousEditing: c.editing}
	if c.editing != nil && c.editing.product.ID == id {
		c.editing = nil
	}
	c.products = next
	c.version++
	t.next = next
	t.version = c.version
	return t
}

func (c *Controller) write(ctx context.Context, t transition, secret, message string) error {
	_, err := c.backend.Commit(ctx, secret, t.next, message)
	if err == nil {
		return nil
	}
	if c.rollback {
		c.mu.Lock()
		restored := c.version == t.version
		if restored {
			c.products = t.previous
			c.editing = t.previousEditing
			c.version++
		}
		c.mu.Unlock()
		if restored {
			slog.Warn("Catalog write failed, local list restored", slog.Any("err", err))
		} else {
			slog.Warn("Catalog write failed, local list changed since, not restored", slog.Any("err", err))
		}
	} else {
		slog.Warn("Catalog write failed, local list kept", slog.Any("err", err))
	}
	return fmt.Errorf("failed to save catalog: %w", err)
}

// Export renders the list as the persisted document format.
func (c *Controller) Export() ([]byte, error) {
	return model.EncodeCatalog(c.Products())
}

// Import replaces the local list with a JSON array of products. Nothing is
// written to the backend.
func (c *Controller) Import(data []byte) error {
	var imported model.Catalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}
	if imported == nil {
		return errors.New("failed to import catalog: expected a JSON array")
	}
	for i := range imported {
		imported[i].Normalize()
		if imported[i].ID == "" {
			imported[i].InitMeta()
		}
	}
	if id, dup := imported.DuplicateID(); dup {
		return fmt.Errorf("failed to import catalog: duplicate product id %s", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = imported
	c.editing = nil
	c.version++
	return nil
}

// Clear empties the local list.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = model.Catalog{}
	c.editing = nil
	c.version++
}

// AutoFill looks up p's page and fills the fields the user left empty.
func (c *Controller) AutoFill(ctx context.Context, p model.Product) (model.Product, error) {
	p.Normalize()
	if p.URL == "" {
		return p, &ValidationError{Fields: []string{"url"}}
	}
	meta, err := c.backend.LookupMetadata(ctx, p.URL)
	if err != nil {
		return p, fmt.Errorf("failed to look up metadata: %w", err)
	}
	if p.Title == "" && meta.Title != nil {
		p.Title = *meta.Title
	}
	if p.Image == "" && meta.Image != nil {
		p.Image = *meta.Image
	}
	if p.Price == "" && meta.Price != nil {
		p.Price = *meta.Price
	}
	return p, nil
}
