// SPDX-License-Identifier: Apache-2.0
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/Work-Fort/Onboard/pkg/download"
	"github.com/hashicorp/go-version"
)

// DefaultAPI is the public GitHub API endpoint
const DefaultAPI = "https://api.github.com"

// Release represents a GitHub release
type Release struct {
	TagName    string  `json:"tag_name"`
	Prerelease bool    `json:"prerelease"`
	Draft      bool    `json:"draft"`
	Assets     []Asset `json:"assets"`
}

// Asset represents a GitHub release asset
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// FindAsset returns the asset with the given name
func (r Release) FindAsset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// Client handles GitHub API requests
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL uses the public API.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPI
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    http.DefaultClient,
	}
}

// ParseRepo splits "owner/repo"
func ParseRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(repo), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q (expected owner/repo)", repo)
	}
	return parts[0], parts[1], nil
}

// GetReleases fetches recent releases for a repository
func (c *Client) GetReleases(ctx context.Context, owner, repo string, perPage int) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", c.baseURL, owner, repo, perPage)

	var releases []Release
	if err := c.getJSON(ctx, url, &releases); err != nil {
		return nil, fmt.Errorf("failed to fetch releases: %w", err)
	}
	return releases, nil
}

// LatestRelease returns the newest non-draft, non-prerelease release by semver
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	releases, err := c.GetReleases(ctx, owner, repo, 20)
	if err != nil {
		return nil, err
	}

	var stable []Release
	for _, r := range releases {
		if !r.Draft && !r.Prerelease {
			stable = append(stable, r)
		}
	}
	if len(stable) == 0 {
		return nil, fmt.Errorf("no releases found for %s/%s", owner, repo)
	}

	latest := SortReleasesBySemver(stable)[0]
	return &latest, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.DoRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// DownloadFile downloads an asset with token injection
func (c *Client) DownloadFile(ctx context.Context, url, dest string, progressCallback download.ProgressCallback) error {
	opts := &download.Options{
		ProgressCallback: progressCallback,
		Client:           c.http,
	}
	if c.token != "" {
		opts.Headers = map[string]string{
			"Authorization": "token " + c.token,
		}
	}
	return download.FileWithOptions(ctx, url, dest, opts)
}

// DoRequest executes an HTTP request with token injection
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	return c.http.Do(req)
}

// StripVersionPrefix removes 'v' prefix from version strings
func StripVersionPrefix(version string) string {
	return strings.TrimPrefix(version, "v")
}

// SortReleasesBySemver sorts releases newest first. Tags that do not
// parse as versions sort after those that do.
func SortReleasesBySemver(releases []Release) []Release {
	sorted := make([]Release, len(releases))
	copy(sorted, releases)

	sort.SliceStable(sorted, func(i, j int) bool {
		v1, err1 := version.NewVersion(StripVersionPrefix(sorted[i].TagName))
		v2, err2 := version.NewVersion(StripVersionPrefix(sorted[j].TagName))
		switch {
		case err1 != nil && err2 != nil:
			return sorted[i].TagName > sorted[j].TagName
		case err1 != nil:
			return false
		case err2 != nil:
			return true
		}
		return v1.GreaterThan(v2)
	})

	return sorted
}
