package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/iyhunko/affiliate-catalog/internal/config"
	"github.com/iyhunko/affiliate-catalog/internal/model"
)

// GitHubStore keeps the catalog in a file of a GitHub repository. Reads go
// through the public raw-content host, writes through the contents API.
type GitHubStore struct {
	gh       *github.Client
	raw      *http.Client
	conf     config.GitHub
	writable bool
}

// NewGitHubStore creates a store for the configured repository file. Every
// outbound call is bounded by timeout.
func NewGitHubStore(conf config.GitHub, timeout time.Duration) (*GitHubStore, error) {
	gh := github.NewClient(&http.Client{Timeout: timeout})
	if conf.Token != "" {
		gh = gh.WithAuthToken(conf.Token)
	}
	if conf.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(conf.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
		gh.BaseURL = baseURL
	}
	if conf.RawURL == "" {
		conf.RawURL = config.DefaultGitHubRawURL
	}

	return &GitHubStore{
		gh:       gh,
		raw:      &http.Client{Timeout: timeout},
		conf:     conf,
		writable: conf.Token != "",
	}, nil
}

// CanWrite reports whether a write credential is configured.
func (s *GitHubStore) CanWrite() bool {
	return s.writable
}

func (s *GitHubStore) rawDocumentURL() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.TrimSuffix(s.conf.RawURL, "/"), s.conf.Owner, s.conf.Repo, s.conf.Branch, strings.TrimPrefix(s.conf.Path, "/"))
}

// Fetch downloads the document from the raw-content host. A document that is
// not a JSON array decodes to an empty catalog.
func (s *GitHubStore) Fetch(ctx context.Context) (model.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.rawDocumentURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	res, err := s.raw.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch catalog: status %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return model.DecodeCatalog(data), nil
}

// Revision returns the current blob sha of the document, or nil when the
// document does not exist yet. Any other host refusal is a RejectedWriteError.
func (s *GitHubStore) Revision(ctx context.Context) (*string, error) {
	file, _, resp, err := s.gh.Repositories.GetContents(ctx, s.conf.Owner, s.conf.Repo, s.conf.Path,
		&github.RepositoryContentGetOptions{Ref: s.conf.Branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if rejected := asRejection(err); rejected != nil {
			return nil, rejected
		}
		return nil, fmt.Errorf("failed to read catalog revision: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("failed to read catalog revision: %s is not a file", s.conf.Path)
	}
	return file.SHA, nil
}

// Put writes the catalog. When revision is non-nil the host rejects the write
// unless it still matches the stored document.
func (s *GitHubStore) Put(ctx context.Context, catalog model.Catalog, message string, revision *string) (*CommitResult, error) {
	if !s.writable {
		return nil, ErrNotConfigured
	}

	content, err := model.EncodeCatalog(catalog)
	if err != nil {
		return nil, err
	}

	branch := s.conf.Branch
	opts := &github.RepositoryContentFileOptions{
		Message: &message,
		Content: content,
		Branch:  &branch,
		SHA:     revision,
	}
	res, _, err := s.gh.Repositories.UpdateFile(ctx, s.conf.Owner, s.conf.Repo, s.conf.Path, opts)
	if err != nil {
		if rejected := asRejection(err); rejected != nil {
			return nil, rejected
		}
		return nil, fmt.Errorf("failed to write catalog: %w", err)
	}

	result := &CommitResult{
		Revision:  res.GetContent().GetSHA(),
		CommitSHA: res.Commit.GetSHA(),
		CommitURL: res.Commit.GetHTMLURL(),
		Message:   message,
	}
	slog.Info("catalog committed",
		slog.String("path", s.conf.Path),
		slog.String("revision", result.Revision),
		slog.Int("products", len(catalog)))
	return result, nil
}

// Commit reads the current revision and then writes the catalog against it.
// Another writer can still win the race between the two calls; the host then
// rejects the write.
func (s *GitHubStore) Commit(ctx context.Context, catalog model.Catalog, message string) (*CommitResult, error) {
	if !s.writable {
		return nil, ErrNotConfigured
	}
	revision, err := s.Revision(ctx)
	if err != nil {
		return nil, err
	}
	return s.Put(ctx, catalog, message, revision)
}

// asRejection converts a host error response into a RejectedWriteError.
func asRejection(err error) *RejectedWriteError {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return nil
	}
	return &RejectedWriteError{StatusCode: ghErr.Response.StatusCode, Body: rejectionBody(ghErr)}
}

func rejectionBody(ghErr *github.ErrorResponse) []byte {
	if ghErr.Response.Body != nil {
		if data, err := io.ReadAll(ghErr.Response.Body); err == nil && len(data) > 0 {
			return data
		}
	}
	data, err := json.Marshal(ghErr)
	if err != nil {
		return []byte(`{"message":` + fmt.Sprintf("%q", ghErr.Message) + `}`)
	}
	return data
}
