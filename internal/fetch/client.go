// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the GitHub REST API base.
	DefaultAPIURL = "https://api.github.com"

	// DefaultRawURL is the unauthenticated raw content host.
	DefaultRawURL = "https://raw.githubusercontent.com"

	// DefaultTimeout bounds a single request when the caller does not
	// supply its own http.Client.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes is the upper bound on a single response body (10 MB).
	maxResponseBytes = 10 << 20
)

type (
	// Fetcher retrieves one file from a source repository at a revision.
	Fetcher interface {
		Fetch(ctx context.Context, repo, path, ref string) ([]byte, error)
	}

	// Client is the production Fetcher. It uses the contents API when a token
	// is configured and the raw download host otherwise.
	Client struct {
		httpClient *http.Client
		apiURL     string
		rawURL     string
		token      string
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client. Its Timeout is the request-level
// bound on a hung fetch.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the GitHub API base URL, primarily for test servers.
func WithAPIURL(base string) ClientOption {
	return func(cl *Client) {
		cl.apiURL = strings.TrimRight(base, "/")
	}
}

// WithRawURL overrides the raw download base URL, primarily for test servers.
func WithRawURL(base string) ClientOption {
	return func(cl *Client) {
		cl.rawURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets the token that switches the client to the API transport.
// An empty token leaves the client on the raw transport.
func WithToken(token string) ClientOption {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a Client with defaults: public GitHub hosts, no token,
// user agent "git-dogfood/dev", and an http.Client with DefaultTimeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		apiURL:     DefaultAPIURL,
		rawURL:     DefaultRawURL,
		userAgent:  "git-dogfood/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether Fetch will use the API transport.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Fetch retrieves path from repo at ref. Every failure is returned as a
// *FetchError naming the path, ref and transport.
func (c *Client) Fetch(ctx context.Context, repo, path, ref string) ([]byte, error) {
	transport := TransportRaw
	fetchFn := c.fetchRaw
	if c.Authenticated() {
		transport = TransportAPI
		fetchFn = c.fetchAPI
	}

	data, err := fetchFn(ctx, repo, path, ref)
	if err != nil {
		return nil, &FetchError{Path: path, Ref: ref, Transport: transport, Err: err}
	}
	return data, nil
}
