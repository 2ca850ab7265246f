// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// fetchRaw retrieves path at ref from the unauthenticated download host,
// e.g. https://raw.githubusercontent.com/{repo}/{ref}/{path}.
func (c *Client) fetchRaw(ctx context.Context, repo, path, ref string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/%s", c.rawURL, repo, url.PathEscape(ref), escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	// Read one byte past the cap so oversized bodies are detected rather
	// than silently truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return data, nil
}
