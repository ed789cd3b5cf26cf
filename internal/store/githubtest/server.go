// Package githubtest provides an in-memory stand-in for the GitHub raw-content
// host and contents API, scoped to a single file.
package githubtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/iyhunko/affiliate-catalog/internal/config"
)

const (
	Owner  = "octo"
	Repo   = "shop"
	Path   = "data/products.json"
	Branch = "main"
	Token  = "test-token"
)

// Server serves one document. Close it when done.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	content   []byte
	sha       string
	commits   int
	failReads bool
}

// NewServer starts a server holding no document.
func NewServer() *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Config returns store configuration pointing at the server.
func (s *Server) Config() config.GitHub {
	return config.GitHub{
		Token:  Token,
		Owner:  Owner,
		Repo:   Repo,
		Path:   Path,
		Branch: Branch,
		APIURL: s.URL + "/api/",
		RawURL: s.URL + "/raw",
	}
}

// Seed replaces the stored document without counting a commit.
func (s *Server) Seed(content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = append([]byte(nil), content...)
	s.sha = blobSHA(content)
}

// Content returns the stored document, nil when absent.
func (s *Server) Content() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content == nil {
		return nil
	}
	return append([]byte(nil), s.content...)
}

// SHA returns the current blob sha, "" when absent.
func (s *Server) SHA() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sha
}

// Commits returns the number of accepted writes.
func (s *Server) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// FailReads makes the raw-content host answer 500.
func (s *Server) FailReads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = fail
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	rawPath := fmt.Sprintf("/raw/%s/%s/%s/%s", Owner, Repo, Branch, Path)
	apiPath := fmt.Sprintf("/api/repos/%s/%s/contents/%s", Owner, Repo, Path)

	switch {
	case r.URL.Path == rawPath && r.Method == http.MethodGet:
		s.serveRaw(w)
	case r.URL.Path == apiPath && r.Method == http.MethodGet:
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		s.serveContents(w, r)
	case r.URL.Path == apiPath && r.Method == http.MethodPut:
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		s.putContents(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func (s *Server) serveRaw(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		http.Error(w, "upstream failure", http.StatusInternalServerError)
		return
	}
	if s.content == nil {
		http.Error(w, "404: Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(s.content)
}

func (s *Server) serveContents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref := r.URL.Query().Get("ref"); ref != "" && ref != Branch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No commit found for the ref " + ref})
		return
	}
	if s.content == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"encoding": "base64",
		"name":     Path[strings.LastIndex(Path, "/")+1:],
		"path":     Path,
		"sha":      s.sha,
		"size":     len(s.content),
		"content":  base64.StdEncoding.EncodeToString(s.content),
	})
}

func (s *Server) putContents(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "content is not valid Base64"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := http.StatusCreated
	if s.content != nil {
		if body.SHA == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request.\n\n\"sha\" wasn't supplied."})
			return
		}
		if body.SHA != s.sha {
			writeJSON(w, http.StatusConflict, map[string]string{
				"message":           fmt.Sprintf("%s does not match %s", Path, body.SHA),
				"documentation_url": "https://docs.github.com/rest/repos/contents#create-or-update-file-contents",
			})
			return
		}
		status = http.StatusOK
	}

	s.content = content
	s.sha = blobSHA(content)
	s.commits++
	commitSHA := blobSHA([]byte(fmt.Sprintf("commit %d %s", s.commits, body.Message)))

	writeJSON(w, status, map[string]any{
		"content": map[string]any{
			"path": Path,
			"sha":  s.sha,
		},
		"commit": map[string]any{
			"sha":      commitSHA,
			"message":  body.Message,
			"html_url": fmt.Sprintf("https://github.com/%s/%s/commit/%s", Owner, Repo, commitSHA),
		},
	})
}

func authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	return header == "Bearer "+Token || header == "token "+Token
}

func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
