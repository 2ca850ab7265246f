// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type (
	// Origin is a fake source repository host. Files are keyed by
	// "<owner>/<repo>@<ref>:<path>".
	Origin struct {
		*httptest.Server

		// Token, when set, is required on API requests.
		Token string

		mu       sync.Mutex
		files    map[string]string
		requests []string
	}

	contentsResponse struct {
		Type     string `json:"type"`
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
)

// NewOrigin starts an Origin serving files and closes it on test cleanup.
//
// Served routes:
//   - GET /<owner>/<repo>/<ref>/<path>: raw content
//   - GET /repos/<owner>/<repo>/contents/<path>?ref=<ref>: base64 JSON
func NewOrigin(t testing.TB, files map[string]string) *Origin {
	t.Helper()

	o := &Origin{files: files}
	o.Server = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.Close)
	return o
}

// Key builds the files map key for repo, ref and path.
func Key(repo, ref, path string) string {
	return repo + "@" + ref + ":" + path
}

// Requests returns the request paths seen so far, in arrival order.
func (o *Origin) Requests() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.requests...)
}

func (o *Origin) serve(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	o.requests = append(o.requests, r.URL.Path)
	o.mu.Unlock()

	if rest, ok := strings.CutPrefix(r.URL.Path, "/repos/"); ok {
		o.serveContents(w, r, rest)
		return
	}

	// /<owner>/<repo>/<ref>/<path...>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 4)
	if len(parts) < 4 {
		http.NotFound(w, r)
		return
	}
	body, ok := o.files[Key(parts[0]+"/"+parts[1], parts[2], parts[3])]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (o *Origin) serveContents(w http.ResponseWriter, r *http.Request, rest string) {
	if o.Token != "" && r.Header.Get("Authorization") != "Bearer "+o.Token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	// <owner>/<repo>/contents/<path...>
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 4 || parts[2] != "contents" {
		http.NotFound(w, r)
		return
	}
	body, ok := o.files[Key(parts[0]+"/"+parts[1], r.URL.Query().Get("ref"), parts[3])]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(contentsResponse{
		Type:     "file",
		Encoding: "base64",
		Content:  wrap(base64.StdEncoding.EncodeToString([]byte(body)), 60),
	})
}

// wrap splits s into newline-terminated lines of n characters, the way
// GitHub returns base64 content.
func wrap(s string, n int) string {
	var b strings.Builder
	for len(s) > n {
		b.WriteString(s[:n])
		b.WriteByte('\n')
		s = s[n:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}
