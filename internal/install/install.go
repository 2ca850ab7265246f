// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mangimangi/git-dogfood/internal/fetch"
)

const (
	// DefaultSourceRepo is the canonical repository of this tool.
	DefaultSourceRepo = "mangimangi/git-dogfood"

	// DefaultConcurrency bounds parallel fetches within one policy class.
	DefaultConcurrency = 4
)

const (
	// StatusInstalled means the artifact was fetched and written.
	StatusInstalled Status = iota
	// StatusSkipped means a OnceOnly artifact already existed.
	StatusSkipped
	// StatusFailed means a OnceOnly artifact could not be fetched or written.
	StatusFailed
)

type (
	// Config holds the inputs of one installation pass.
	Config struct {
		// Ref is the revision or version to install. Required.
		Ref string
		// SourceRepo is the origin repository as "owner/name".
		SourceRepo string
		// InstallDir is the code directory; DefaultInstallDir when empty.
		InstallDir string
		// ManifestPath, when set, receives the list of written paths.
		ManifestPath string
		// AuthToken switches fetching to the authenticated API transport.
		AuthToken string
	}

	// Status is the outcome of one artifact in a pass.
	Status int

	// Outcome records what happened to one artifact.
	Outcome struct {
		Artifact Artifact
		Status   Status
		Err      error
	}

	// Result is returned by a successful pass.
	Result struct {
		Ref        string
		Tag        string
		SourceRepo string
		InstallDir string
		Outcomes   []Outcome
		Manifest   Manifest
	}

	// FetcherFactory builds the Fetcher for a pass from the configured token.
	FetcherFactory func(token string) fetch.Fetcher

	// Installer runs installation passes against a consumer repository.
	Installer struct {
		newFetcher  FetcherFactory
		logger      *log.Logger
		root        string
		concurrency int
		artifacts   func(installDir string) []Artifact
	}

	// Option configures an Installer during construction.
	Option func(*Installer)
)

// String returns the status name used in logs and summaries.
func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// WithFetcher makes every pass use f regardless of the configured token.
func WithFetcher(f fetch.Fetcher) Option {
	return func(i *Installer) {
		i.newFetcher = func(string) fetch.Fetcher { return f }
	}
}

// WithFetcherFactory sets how the Fetcher is built from the configured token.
func WithFetcherFactory(fn FetcherFactory) Option {
	return func(i *Installer) {
		i.newFetcher = fn
	}
}

// WithLogger sets the logger for per-artifact events.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// WithRoot sets the consumer repository root that relative paths resolve
// against. Defaults to the working directory.
func WithRoot(dir string) Option {
	return func(i *Installer) {
		i.root = dir
	}
}

// WithConcurrency bounds parallel fetches within one policy class.
func WithConcurrency(n int) Option {
	return func(i *Installer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithArtifacts replaces DefaultArtifacts.
func WithArtifacts(fn func(installDir string) []Artifact) Option {
	return func(i *Installer) {
		i.artifacts = fn
	}
}

// New creates an Installer. Without options it fetches from public GitHub
// and logs nothing.
func New(opts ...Option) *Installer {
	i := &Installer{
		newFetcher: func(token string) fetch.Fetcher {
			return fetch.NewClient(fetch.WithToken(token))
		},
		logger:      log.New(io.Discard),
		root:        ".",
		concurrency: DefaultConcurrency,
		artifacts:   DefaultArtifacts,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install runs one installation pass.
//
// Flow:
//  1. Reject an empty ref before anything touches the network.
//  2. Create the install dir and the workflow dir.
//  3. Fetch and write every AlwaysOverwrite artifact; any failure aborts.
//  4. Fetch and write every absent OnceOnly artifact; failures are logged.
//  5. Record the ref in the version marker.
//  6. Write the manifest when requested.
func (i *Installer) Install(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Ref == "" {
		return nil, &MissingRefError{}
	}
	if cfg.SourceRepo == "" {
		cfg.SourceRepo = DefaultSourceRepo
	}
	if cfg.InstallDir == "" {
		cfg.InstallDir = DefaultInstallDir
	}

	for _, dir := range []string{cfg.InstallDir, WorkflowDir} {
		if err := os.MkdirAll(i.abs(dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	fetcher := i.newFetcher(cfg.AuthToken)
	artifacts := i.artifacts(cfg.InstallDir)

	var always, once []Artifact
	for _, a := range artifacts {
		if a.Policy == OnceOnly {
			once = append(once, a)
		} else {
			always = append(always, a)
		}
	}

	res := &Result{
		Ref:        cfg.Ref,
		Tag:        CanonicalTag(cfg.Ref),
		SourceRepo: cfg.SourceRepo,
		InstallDir: cfg.InstallDir,
	}

	alwaysOut, err := i.installMandatory(ctx, fetcher, cfg, always)
	if err != nil {
		return nil, err
	}
	onceOut := i.installOptional(ctx, fetcher, cfg, once)

	for _, out := range append(alwaysOut, onceOut...) {
		res.Outcomes = append(res.Outcomes, out)
		if out.Status == StatusInstalled {
			res.Manifest = append(res.Manifest, out.Artifact.DestPath)
		}
	}

	versionPath := filepath.Join(cfg.InstallDir, VersionFile)
	if err := writeFileAtomic(i.abs(versionPath), []byte(cfg.Ref+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing version marker: %w", err)
	}

	if cfg.ManifestPath != "" {
		if err := res.Manifest.WriteFile(i.abs(cfg.ManifestPath)); err != nil {
			return nil, err
		}
		i.logger.Debug("wrote manifest", "path", cfg.ManifestPath, "entries", len(res.Manifest))
	}

	return res, nil
}

// installMandatory fetches and writes AlwaysOverwrite artifacts in parallel.
// The first failure cancels the rest and is returned.
func (i *Installer) installMandatory(ctx context.Context, f fetch.Fetcher, cfg Config, artifacts []Artifact) ([]Outcome, error) {
	out := make([]Outcome, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, a := range artifacts {
		g.Go(func() error {
			if err := i.fetchAndWrite(gctx, f, cfg, a); err != nil {
				i.logger.Error("install failed", "path", a.DestPath, "policy", a.Policy, "err", err)
				return &ArtifactError{DestPath: a.DestPath, Policy: a.Policy, Err: err}
			}
			i.logger.Info("installed", "path", a.DestPath, "ref", a.fetchRef(cfg.Ref))
			out[idx] = Outcome{Artifact: a, Status: StatusInstalled}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// installOptional handles OnceOnly artifacts. Existing destinations are left
// untouched; fetch failures are recorded on the outcome and never returned.
func (i *Installer) installOptional(ctx context.Context, f fetch.Fetcher, cfg Config, artifacts []Artifact) []Outcome {
	out := make([]Outcome, len(artifacts))

	var g errgroup.Group
	g.SetLimit(i.concurrency)
	for idx, a := range artifacts {
		exists, statErr := pathExists(i.abs(a.DestPath))
		if statErr != nil {
			i.logger.Warn("cannot stat artifact", "path", a.DestPath, "err", statErr)
			out[idx] = Outcome{Artifact: a, Status: StatusFailed, Err: statErr}
			continue
		}
		if exists {
			i.logger.Info(a.DestPath + " already exists, skipping")
			out[idx] = Outcome{Artifact: a, Status: StatusSkipped}
			continue
		}

		g.Go(func() error {
			if err := i.fetchAndWrite(ctx, f, cfg, a); err != nil {
				i.logger.Warn("optional artifact not installed", "path", a.DestPath, "err", err)
				out[idx] = Outcome{Artifact: a, Status: StatusFailed, Err: &ArtifactError{DestPath: a.DestPath, Policy: a.Policy, Err: err}}
				return nil
			}
			i.logger.Info("installed", "path", a.DestPath, "ref", a.fetchRef(cfg.Ref))
			out[idx] = Outcome{Artifact: a, Status: StatusInstalled}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return out
}

// fetchAndWrite retrieves one artifact, validates it and writes it in place.
func (i *Installer) fetchAndWrite(ctx context.Context, f fetch.Fetcher, cfg Config, a Artifact) error {
	ref := a.fetchRef(cfg.Ref)
	data, err := f.Fetch(ctx, cfg.SourceRepo, a.SourcePath, ref)
	if err != nil {
		return err
	}
	if err := a.validate(data); err != nil {
		return &fetch.FetchError{Path: a.SourcePath, Ref: ref, Transport: fetch.TransportContent, Err: err}
	}
	return writeFileAtomic(i.abs(a.DestPath), data, a.mode())
}

// abs resolves p against the installer root.
func (i *Installer) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(i.root, filepath.FromSlash(p))
}

// pathExists reports whether p exists. Only "does not exist" maps to false.
func pathExists(p string) (bool, error) {
	_, err := os.Lstat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Installed returns the outcomes with StatusInstalled.
func (r *Result) Installed() []Outcome { return r.filter(StatusInstalled) }

// Skipped returns the outcomes with StatusSkipped.
func (r *Result) Skipped() []Outcome { return r.filter(StatusSkipped) }

// Failed returns the outcomes with StatusFailed.
func (r *Result) Failed() []Outcome { return r.filter(StatusFailed) }

func (r *Result) filter(s Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == s {
			out = append(out, o)
		}
	}
	return out
}
