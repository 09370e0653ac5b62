package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GitHubTagSource finds the latest SDK version from a repository's git tags
type GitHubTagSource struct {
	owner       string // Repository owner
	repo        string // Repository name
	githubToken string // Optional, for rate limiting
	client      *http.Client
	baseURL     string // Base URL for GitHub API (for testing)
}

// gitRef is one element of the git/refs/tags listing
type gitRef struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

// NewGitHubTagSource creates a tag source for owner/repo
func NewGitHubTagSource(owner, repo string) *GitHubTagSource {
	return &GitHubTagSource{
		owner: owner,
		repo:  repo,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.github.com",
	}
}

// WithToken sets an optional GitHub token for authentication
func (s *GitHubTagSource) WithToken(token string) *GitHubTagSource {
	s.githubToken = token
	return s
}

// WithBaseURL points the source at a different API host
func (s *GitHubTagSource) WithBaseURL(baseURL string) *GitHubTagSource {
	s.baseURL = strings.TrimSuffix(baseURL, "/")
	return s
}

// LatestTag returns the highest well-formed version tag, or "" when the
// repository has none.
func (s *GitHubTagSource) LatestTag(ctx context.Context) (string, error) {
	refs, err := s.listTagRefs(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list tags: %w", err)
	}

	var best *Version
	for _, ref := range refs {
		name := strings.TrimPrefix(ref.Ref, "refs/tags/")
		v, err := ParseVersion(name)
		if err != nil {
			continue
		}
		if best == nil || v.IsGreaterThan(best) {
			best = v
		}
	}

	if best == nil {
		return "", nil
	}
	return best.String(), nil
}

// listTagRefs fetches the tag refs from GitHub API
func (s *GitHubTagSource) listTagRefs(ctx context.Context) ([]gitRef, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/git/refs/tags", s.baseURL, s.owner, s.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "sdkctl")
	if s.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.githubToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// A repository without tags answers 404 on this endpoint
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("GitHub API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var refs []gitRef
	if err := json.NewDecoder(resp.Body).Decode(&refs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return refs, nil
}
