// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"testing"

	"github.com/mangimangi/git-dogfood/internal/fetch"
)

const (
	testResolve  = "#!/usr/bin/env python3\n# mock resolve script\n"
	testWorkflow = "name: dogfood\non:\n  workflow_dispatch: {}\n"
)

type (
	fetchCall struct {
		repo, path, ref string
	}

	// fakeFetcher serves fixed content per source path and records calls.
	fakeFetcher struct {
		mu      sync.Mutex
		content map[string]string
		fail    map[string]error
		calls   []fetchCall
	}
)

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		content: map[string]string{
			ResolveSource:  testResolve,
			WorkflowSource: testWorkflow,
		},
		fail: map[string]error{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, repo, path, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fetchCall{repo: repo, path: path, ref: ref})
	if err, ok := f.fail[path]; ok {
		return nil, &fetch.FetchError{Path: path, Ref: ref, Transport: fetch.TransportRaw, Err: err}
	}
	c, ok := f.content[path]
	if !ok {
		return nil, &fetch.FetchError{Path: path, Ref: ref, Transport: fetch.TransportRaw, Err: &fetch.StatusError{StatusCode: 404}}
	}
	return []byte(c), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestInstall_FreshInstall(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	inst := New(WithFetcher(ff), WithRoot(root))

	res, err := inst.Install(context.Background(), Config{Ref: "2.3.0", ManifestPath: "manifest.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolvePath := filepath.Join(root, ".dogfood", "resolve")
	if got := readFile(t, resolvePath); got != testResolve {
		t.Errorf("resolve content = %q", got)
	}
	if runtime.GOOS != "windows" {
		info, statErr := os.Stat(resolvePath)
		if statErr != nil {
			t.Fatal(statErr)
		}
		if info.Mode().Perm()&0o111 == 0 {
			t.Errorf("resolve is not executable: %v", info.Mode())
		}
	}

	if got := readFile(t, filepath.Join(root, ".github", "workflows", "dogfood.yml")); got != testWorkflow {
		t.Errorf("workflow content = %q", got)
	}

	wantManifest := Manifest{".dogfood/resolve", ".github/workflows/dogfood.yml"}
	if !slices.Equal(res.Manifest, wantManifest) {
		t.Errorf("result manifest = %v, want %v", res.Manifest, wantManifest)
	}
	if got := readFile(t, filepath.Join(root, "manifest.txt")); got != ".dogfood/resolve\n.github/workflows/dogfood.yml\n" {
		t.Errorf("manifest file = %q", got)
	}

	for _, c := range ff.calls {
		if c.ref != "v2.3.0" {
			t.Errorf("fetch of %s used ref %q, want v2.3.0", c.path, c.ref)
		}
		if c.repo != DefaultSourceRepo {
			t.Errorf("fetch of %s used repo %q, want default", c.path, c.repo)
		}
	}
	if res.Tag != "v2.3.0" {
		t.Errorf("result tag = %q", res.Tag)
	}
}

func TestInstall_CreatesDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	ff.fail[WorkflowSource] = errors.New("boom")
	ff.fail[ResolveSource] = errors.New("boom")

	// Even a failing pass creates both directories first.
	_, _ = New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{Ref: "1.0.0"})

	for _, dir := range []string{".dogfood", filepath.Join(".github", "workflows")} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s, err=%v", dir, err)
		}
	}
}

func TestInstall_SkipsExistingWorkflow(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	wfDir := filepath.Join(root, ".github", "workflows")
	if err := os.MkdirAll(wfDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := "# existing workflow\n"
	if err := os.WriteFile(filepath.Join(wfDir, "dogfood.yml"), []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	ff := newFakeFetcher()
	ff.content[ResolveSource] = "# resolve v3\n"
	res, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{Ref: "3.0.0", ManifestPath: "m.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := readFile(t, filepath.Join(wfDir, "dogfood.yml")); got != existing {
		t.Errorf("workflow was modified: %q", got)
	}
	if got := readFile(t, filepath.Join(root, ".dogfood", "resolve")); got != "# resolve v3\n" {
		t.Errorf("resolve not updated: %q", got)
	}
	if !slices.Equal(res.Manifest, Manifest{".dogfood/resolve"}) {
		t.Errorf("manifest = %v", res.Manifest)
	}
	if skipped := res.Skipped(); len(skipped) != 1 || skipped[0].Artifact.SourcePath != WorkflowSource {
		t.Errorf("skipped = %+v", skipped)
	}
	for _, c := range ff.calls {
		if c.path == WorkflowSource {
			t.Error("existing OnceOnly artifact must not be fetched")
		}
	}
}

func TestInstall_MissingRefMakesNoFetch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	_, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{ManifestPath: "m.txt"})

	if !errors.Is(err, ErrMissingRef) {
		t.Fatalf("expected ErrMissingRef, got %v", err)
	}
	var mre *MissingRefError
	if !errors.As(err, &mre) {
		t.Fatalf("expected *MissingRefError, got %T", err)
	}
	if n := ff.callCount(); n != 0 {
		t.Errorf("expected zero fetches, got %d", n)
	}
	if _, statErr := os.Stat(filepath.Join(root, ".dogfood")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("configuration error must fail before touching the filesystem")
	}
}

func TestInstall_MandatoryFailureAborts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	ff.fail[ResolveSource] = errors.New("connection reset")

	res, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{Ref: "1.0.0", ManifestPath: "m.txt"})
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}

	var ae *ArtifactError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *ArtifactError, got %T: %v", err, err)
	}
	if ae.Policy != AlwaysOverwrite {
		t.Errorf("policy = %v", ae.Policy)
	}
	if !errors.Is(err, fetch.ErrFetch) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "m.txt")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("manifest must not be written after an aborted pass")
	}
	if _, statErr := os.Stat(filepath.Join(root, ".github", "workflows", "dogfood.yml")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("OnceOnly artifacts must not be installed after an aborted pass")
	}
}

func TestInstall_OptionalFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	ff.fail[WorkflowSource] = errors.New("404")

	res, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{Ref: "1.0.0", ManifestPath: "m.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed := res.Failed()
	if len(failed) != 1 || failed[0].Artifact.SourcePath != WorkflowSource {
		t.Fatalf("failed = %+v", failed)
	}
	if !errors.Is(failed[0].Err, fetch.ErrFetch) {
		t.Errorf("failed outcome error = %v", failed[0].Err)
	}
	if got := readFile(t, filepath.Join(root, "m.txt")); got != ".dogfood/resolve\n" {
		t.Errorf("manifest = %q", got)
	}
}

func TestInstall_InvalidYAMLWorkflow(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	ff.content[WorkflowSource] = "on: [unterminated\n"

	res, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{Ref: "1.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failed := res.Failed()
	if len(failed) != 1 {
		t.Fatalf("expected the malformed workflow to fail, got %+v", res.Outcomes)
	}
	var fe *fetch.FetchError
	if !errors.As(failed[0].Err, &fe) || fe.Transport != fetch.TransportContent {
		t.Errorf("expected content FetchError, got %v", failed[0].Err)
	}
	if _, statErr := os.Stat(filepath.Join(root, ".github", "workflows", "dogfood.yml")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("malformed workflow must not be written")
	}
}

func TestInstall_CommentOnlyWorkflowIsWritten(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		"# only a comment\n",
		"#!/usr/bin/env python3\n# mock resolve script\n",
		"",
	} {
		root := t.TempDir()
		ff := newFakeFetcher()
		ff.content[WorkflowSource] = body

		res, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{Ref: "1.0.0"})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", body, err)
		}
		if failed := res.Failed(); len(failed) != 0 {
			t.Fatalf("%q: workflow rejected: %v", body, failed[0].Err)
		}
		if got := readFile(t, filepath.Join(root, ".github", "workflows", "dogfood.yml")); got != body {
			t.Errorf("workflow = %q, want %q", got, body)
		}
	}
}

func TestInstall_ManifestWriteError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	// A non-empty directory in place of the manifest makes the rename fail.
	manifestDir := filepath.Join(root, "manifest")
	if err := os.MkdirAll(filepath.Join(manifestDir, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := New(WithFetcher(newFakeFetcher()), WithRoot(root)).Install(context.Background(), Config{Ref: "1.0.0", ManifestPath: "manifest"})

	var mwe *ManifestWriteError
	if !errors.As(err, &mwe) {
		t.Fatalf("expected *ManifestWriteError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrManifestWrite) {
		t.Error("expected errors.Is(err, ErrManifestWrite)")
	}
}

func TestInstall_VersionMarker(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inst := New(WithFetcher(newFakeFetcher()), WithRoot(root))

	for _, ref := range []string{"1.0.0", "2.0.0"} {
		if _, err := inst.Install(context.Background(), Config{Ref: ref}); err != nil {
			t.Fatalf("install %s: %v", ref, err)
		}
		if got := readFile(t, filepath.Join(root, ".dogfood", VersionFile)); got != ref+"\n" {
			t.Errorf("version marker = %q, want %q", got, ref)
		}
	}
}

func TestInstall_CustomInstallDirAndRepo(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	res, err := New(WithFetcher(ff), WithRoot(root)).Install(context.Background(), Config{
		Ref:        "main",
		SourceRepo: "o/gd",
		InstallDir: "tools/dogfood",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Manifest[0] != "tools/dogfood/resolve" {
		t.Errorf("manifest[0] = %q", res.Manifest[0])
	}
	if got := readFile(t, filepath.Join(root, "tools", "dogfood", "resolve")); got != testResolve {
		t.Errorf("resolve content = %q", got)
	}
	for _, c := range ff.calls {
		if c.repo != "o/gd" || c.ref != "main" {
			t.Errorf("unexpected call %+v", c)
		}
	}
}

func TestInstall_ArtifactRefOverride(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	inst := New(WithFetcher(ff), WithRoot(root), WithArtifacts(func(dir string) []Artifact {
		arts := DefaultArtifacts(dir)
		arts[1].Ref = "main"
		return arts
	}))

	if _, err := inst.Install(context.Background(), Config{Ref: "1.2.3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs := map[string]string{}
	for _, c := range ff.calls {
		refs[c.path] = c.ref
	}
	if refs[ResolveSource] != "v1.2.3" || refs[WorkflowSource] != "main" {
		t.Errorf("refs = %v", refs)
	}
}

func TestInstall_TokenReachesFactory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var gotToken string
	inst := New(WithRoot(root), WithFetcherFactory(func(token string) fetch.Fetcher {
		gotToken = token
		return newFakeFetcher()
	}))

	if _, err := inst.Install(context.Background(), Config{Ref: "1.0.0", AuthToken: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotToken != "secret" {
		t.Errorf("factory token = %q", gotToken)
	}
}

func TestInstall_ManyArtifactsKeepDeclarationOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ff := newFakeFetcher()
	var arts []Artifact
	for n := range 10 {
		src := fmt.Sprintf("lib/part%d", n)
		ff.content[src] = src
		arts = append(arts, Artifact{SourcePath: src, DestPath: ".dogfood/" + src, Policy: AlwaysOverwrite})
	}
	inst := New(WithFetcher(ff), WithRoot(root), WithConcurrency(3), WithArtifacts(func(string) []Artifact { return arts }))

	res, err := inst.Install(context.Background(), Config{Ref: "1.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for n, p := range res.Manifest {
		if want := arts[n].DestPath; p != want {
			t.Errorf("manifest[%d] = %q, want %q", n, p, want)
		}
	}
}

func TestCanonicalTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  string
		want string
	}{
		{ref: "2.3.0", want: "v2.3.0"},
		{ref: "v2.3.0", want: "v2.3.0"},
		{ref: "1.0.0-rc.1", want: "v1.0.0-rc.1"},
		{ref: "main", want: "main"},
		{ref: "0f3c2a1", want: "0f3c2a1"},
		{ref: "1234567", want: "1234567"},
		{ref: "2.3", want: "2.3"},
		{ref: "v2", want: "v2"},
		{ref: "2.3.0+build.5", want: "v2.3.0+build.5"},
		{ref: "version-2", want: "version-2"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()
			if got := CanonicalTag(tt.ref); got != tt.want {
				t.Errorf("CanonicalTag(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestManifest_WriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "m.txt")
	if err := (Manifest{"a", "b/c"}).WriteFile(path); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "a\nb/c\n" {
		t.Errorf("manifest file = %q", got)
	}
}
