// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// githubAPIVersion is sent as X-GitHub-Api-Version on every API request.
const githubAPIVersion = "2022-11-28"

// contentsResponse is the JSON wire format of GET /repos/{repo}/contents/{path}.
type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
}

// fetchAPI retrieves path at ref through the GitHub contents API.
func (c *Client) fetchAPI(ctx context.Context, repo, path, ref string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		c.apiURL, repo, escapePath(path), url.QueryEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("User-Agent", c.userAgent)

	// Only attach the token when the request targets the configured API host.
	if isAPIHost(req.URL, c.apiURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return nil, rlErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var cr contentsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return decodeContent(cr)
}

// decodeContent turns the contents API payload into raw file bytes. GitHub
// wraps base64 content at 60 columns, so newlines are stripped first.
func decodeContent(cr contentsResponse) ([]byte, error) {
	if cr.Type != "" && cr.Type != "file" {
		return nil, fmt.Errorf("path is a %s, not a file", cr.Type)
	}
	switch cr.Encoding {
	case "base64":
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(cr.Content)
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 content: %w", err)
		}
		return data, nil
	case "", "none":
		// Files over 1 MB come back without inline content.
		return nil, fmt.Errorf("content not inlined (encoding %q)", cr.Encoding)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", cr.Encoding)
	}
}

// checkRateLimit inspects the X-RateLimit-* response headers and returns a
// RateLimitError when the remaining quota is zero.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	rem, err := strconv.Atoi(remaining)
	if err != nil {
		return nil //nolint:nilerr // Non-numeric header is non-fatal.
	}
	if rem > 0 {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // Best-effort header parsing.
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // Best-effort header parsing.

	return &RateLimitError{
		Limit:     limit,
		Remaining: 0,
		ResetAt:   time.Unix(resetUnix, 0),
	}
}

// isAPIHost reports whether reqURL targets the configured API host.
func isAPIHost(reqURL *url.URL, apiURL string) bool {
	base, err := url.Parse(apiURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}

// escapePath escapes each segment of a slash-separated repository path.
func escapePath(p string) string {
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
