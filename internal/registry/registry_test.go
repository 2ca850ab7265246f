// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `{
  "vendors": {
    "git-dogfood": {
      "repo": "mangimangi/git-dogfood",
      "install_branch": "chore/install-git-dogfood",
      "protected": [".dogfood/**", ".github/workflows/dogfood.yml"],
      "allowed": [".dogfood/config.cue"],
      "private": false,
      "automerge": true
    },
    "other-tool": {"repo": "o/ot", "future_field": {"x": 1}}
  },
  "schema_version": 2
}
`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	reg, err := Load(writeRegistry(t, sampleRegistry))
	require.NoError(t, err)
	require.Len(t, reg.Vendors, 2)
	assert.Empty(t, reg.Malformed)

	v := reg.Vendors["git-dogfood"]
	assert.Equal(t, "mangimangi/git-dogfood", v.Repo)
	assert.Equal(t, "chore/install-git-dogfood", v.InstallBranch)
	assert.Equal(t, []string{".dogfood/**", ".github/workflows/dogfood.yml"}, v.Protected)
	assert.True(t, v.Automerge)
	assert.False(t, v.Private)
	assert.Equal(t, "o/ot", reg.Vendors["other-tool"].Repo)
}

func TestLoad_Unavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file"},
		{name: "malformed json", content: ptr(`{"vendors": {`)},
		{name: "vendors not an object", content: ptr(`{"vendors": ["git-dogfood"]}`)},
		{name: "vendors is null", content: ptr(`{"vendors": null}`)},
		{name: "top level array", content: ptr(`[]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := filepath.Join(t.TempDir(), "config.json")
			if tt.content != nil {
				p = writeRegistry(t, *tt.content)
			}

			reg, err := Load(p)
			assert.Nil(t, reg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable), "expected ErrUnavailable, got %v", err)

			var ue *UnavailableError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, p, ue.Path)
		})
	}
}

func TestParse_BadlyShapedSiblingKeepsOtherEntries(t *testing.T) {
	t.Parallel()

	doc := `{"vendors": {
  "git-dogfood": {"repo": "mangimangi/git-dogfood", "private": true},
  "typed-wrong": {"private": "yes"},
  "glob-string": {"protected": ".x/**"},
  "null-entry": null
}}`

	reg, err := Load(writeRegistry(t, doc))
	require.NoError(t, err)

	require.Len(t, reg.Vendors, 4)
	assert.Equal(t, "mangimangi/git-dogfood", reg.Vendors["git-dogfood"].Repo)
	assert.True(t, reg.Vendors["git-dogfood"].Private)
	assert.NotContains(t, reg.Malformed, "git-dogfood")

	for _, key := range []string{"typed-wrong", "glob-string", "null-entry"} {
		assert.Contains(t, reg.Vendors, key)
		require.Contains(t, reg.Malformed, key)
		assert.Contains(t, reg.Malformed[key].Error(), "vendors."+key)
	}
}

func TestParse_OwnEntryMalformedIsStillRegistered(t *testing.T) {
	t.Parallel()

	reg, err := Parse([]byte(`{"vendors": {"git-dogfood": {"private": "yes"}}}`), "inline")
	require.NoError(t, err)
	assert.Contains(t, reg.Vendors, "git-dogfood")
	require.Contains(t, reg.Malformed, "git-dogfood")
	assert.Contains(t, reg.Malformed["git-dogfood"].Error(), "private")
}

func TestParse_EmptyDocuments(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{`{}`, `{"vendors": {}}`} {
		reg, err := Parse([]byte(doc), "inline")
		require.NoError(t, err, doc)
		assert.Empty(t, reg.Vendors, doc)
	}
}

func TestVendor_Protects(t *testing.T) {
	t.Parallel()

	v := Vendor{
		Protected: []string{".dogfood/**", ".github/workflows/*.yml"},
		Allowed:   []string{".dogfood/config.cue"},
	}

	tests := []struct {
		path string
		want bool
	}{
		{path: ".dogfood/resolve", want: true},
		{path: ".dogfood", want: true},
		{path: ".dogfood/config.cue", want: false},
		{path: ".github/workflows/dogfood.yml", want: true},
		{path: ".github/workflows/nested/x.yml", want: false},
		{path: ".dogfoodx/resolve", want: false},
		{path: "README.md", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, v.Protects(tt.path), tt.path)
	}
}

func ptr(s string) *string { return &s }
