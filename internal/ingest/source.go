// Package ingest fetches rule files and the CARD reference mapping, and merges them
// with the persisted snapshot into the rule store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteFile is one candidate rule file offered by a Source.
type RemoteFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Source lists and fetches remote rule files.
type Source interface {
	ListRuleFiles(ctx context.Context) ([]RemoteFile, error)
	FetchText(ctx context.Context, url string) (string, error)
	FetchReferenceMapping(ctx context.Context) (string, error)
}

// GitHubConfig locates the rules directory of a GitHub repository.
type GitHubConfig struct {
	Repo       string // "owner/name"
	Branch     string
	Path       string
	Extension  string // e.g. ".txt"
	MappingURL string
	Token      string // optional, raises the API rate limit
	Timeout    time.Duration

	// APIBase and RawBase override the GitHub endpoints (used in tests).
	APIBase string
	RawBase string
}

// GitHubSource lists rule files through the GitHub contents API and fetches them
// from raw.githubusercontent.com.
type GitHubSource struct {
	cfg        GitHubConfig
	httpClient *http.Client
}

// NewGitHubSource creates a source for cfg.
func NewGitHubSource(cfg GitHubConfig) *GitHubSource {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	if cfg.RawBase == "" {
		cfg.RawBase = "https://raw.githubusercontent.com"
	}
	if cfg.Extension == "" {
		cfg.Extension = ".txt"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GitHubSource{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ListingURL returns the contents API URL for the rules directory.
func (s *GitHubSource) ListingURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		strings.TrimRight(s.cfg.APIBase, "/"), s.cfg.Repo, s.cfg.Path, s.cfg.Branch)
}

// RawURL returns the raw download URL for a file in the rules directory.
func (s *GitHubSource) RawURL(name string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.TrimRight(s.cfg.RawBase, "/"), s.cfg.Repo, s.cfg.Branch, s.cfg.Path, name)
}

// contentEntry is one item of the GitHub contents API response.
type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListRuleFiles returns the files in the rules directory whose names carry the
// configured extension.
func (s *GitHubSource) ListRuleFiles(ctx context.Context) ([]RemoteFile, error) {
	body, err := s.get(ctx, s.ListingURL(), "application/vnd.github+json")
	if err != nil {
		return nil, fmt.Errorf("list rule files: %w", err)
	}
	defer body.Close()

	var entries []contentEntry
	if err := json.NewDecoder(body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode GitHub listing: %w", err)
	}

	var files []RemoteFile
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		if !strings.HasSuffix(e.Name, s.cfg.Extension) {
			continue
		}
		files = append(files, RemoteFile{Name: e.Name, URL: s.RawURL(e.Name)})
	}
	return files, nil
}

// FetchText retrieves url and returns its body as text.
func (s *GitHubSource) FetchText(ctx context.Context, url string) (string, error) {
	body, err := s.get(ctx, url, "")
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// FetchReferenceMapping retrieves the CARD drug/class mapping table.
func (s *GitHubSource) FetchReferenceMapping(ctx context.Context) (string, error) {
	if s.cfg.MappingURL == "" {
		return "", fmt.Errorf("no reference mapping URL configured")
	}
	return s.FetchText(ctx, s.cfg.MappingURL)
}

// CloseIdleConnections releases pooled connections.
func (s *GitHubSource) CloseIdleConnections() {
	s.httpClient.CloseIdleConnections()
}

func (s *GitHubSource) get(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if s.cfg.Token != "" && strings.HasPrefix(url, s.cfg.APIBase) {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}
