// Package store persists the catalog as a single JSON document in a
// version-controlled content host.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iyhunko/affiliate-catalog/internal/model"
)

var (
	// ErrNotConfigured is returned when a write is attempted without a write credential.
	ErrNotConfigured = errors.New("server not configured (no token)")
)

// Store reads and conditionally overwrites the catalog document.
type Store interface {
	Fetch(ctx context.Context) (model.Catalog, error)
	Commit(ctx context.Context, catalog model.Catalog, message string) (*CommitResult, error)
	CanWrite() bool
}

// CommitResult describes a successful write.
type CommitResult struct {
	Revision  string `json:"revision"`
	CommitSHA string `json:"commit_sha"`
	CommitURL string `json:"commit_url,omitempty"`
	Message   string `json:"message"`
}

// RejectedWriteError carries the content host's rejection unchanged so it can
// be forwarded to the caller.
type RejectedWriteError struct {
	StatusCode int
	Body       []byte
}

func (e *RejectedWriteError) Error() string {
	return fmt.Sprintf("content host rejected write with status %d: %s", e.StatusCode, string(e.Body))
}
