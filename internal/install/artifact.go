// SPDX-License-Identifier: MPL-2.0

package install

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultInstallDir is the code directory used when no install dir is configured.
	DefaultInstallDir = ".dogfood"

	// WorkflowDir is the fixed directory of the auxiliary trigger artifact.
	WorkflowDir = ".github/workflows"

	// ResolveSource is the path of the resolver script in the source repository.
	ResolveSource = "resolve"

	// WorkflowSource is the path of the trigger workflow template in the source repository.
	WorkflowSource = "templates/github/workflows/dogfood.yml"

	// VersionFile is the marker inside the install dir that records the installed ref.
	VersionFile = ".version"
)

const (
	// AlwaysOverwrite artifacts are versioned code rewritten on every pass.
	AlwaysOverwrite Policy = iota
	// OnceOnly artifacts are written only when absent, since consumers may
	// customize them after the first install.
	OnceOnly
)

const (
	// FormatRaw content is written as fetched.
	FormatRaw Format = iota
	// FormatYAML content must be free of YAML syntax errors before it is written.
	FormatYAML
)

type (
	// Policy decides whether an existing destination is replaced.
	Policy int

	// Format selects the content check applied before writing.
	Format int

	// Artifact is one file to install.
	Artifact struct {
		// SourcePath is the slash-separated path inside the source repository.
		SourcePath string
		// DestPath is the path in the consumer repository, relative to its root.
		DestPath string
		// Policy is AlwaysOverwrite or OnceOnly.
		Policy Policy
		// Executable marks the destination 0755 instead of 0644.
		Executable bool
		// Ref pins this artifact to its own revision instead of the derived tag.
		Ref string
		// Format selects validation of fetched content.
		Format Format
	}
)

// String returns the policy name used in logs.
func (p Policy) String() string {
	switch p {
	case AlwaysOverwrite:
		return "always-overwrite"
	case OnceOnly:
		return "once-only"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// DefaultArtifacts returns the artifact set of this tool for installDir:
// the executable resolver and the trigger workflow.
func DefaultArtifacts(installDir string) []Artifact {
	return []Artifact{
		{
			SourcePath: ResolveSource,
			DestPath:   path.Join(filepath.ToSlash(installDir), "resolve"),
			Policy:     AlwaysOverwrite,
			Executable: true,
		},
		{
			SourcePath: WorkflowSource,
			DestPath:   path.Join(WorkflowDir, "dogfood.yml"),
			Policy:     OnceOnly,
			Format:     FormatYAML,
		},
	}
}

// CanonicalTag derives the tag fetched for ref. A release version of the
// form MAJOR.MINOR.PATCH, optionally with prerelease or build suffixes, gets
// the "v" prefix ("2.3.0" becomes "v2.3.0"). Anything else is used unchanged:
// a tag that already carries the prefix, a branch, a short version such as
// "2.3", or a commit SHA, including an all-digit one.
func CanonicalTag(ref string) string {
	v := ref
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if isReleaseVersion(v) {
		return v
	}
	return ref
}

// isReleaseVersion reports whether v is valid semver with all three numeric
// parts spelled out. semver accepts "v1" and "v1.2" as shorthands.
func isReleaseVersion(v string) bool {
	if !semver.IsValid(v) {
		return false
	}
	core, _, _ := strings.Cut(v, "+")
	core, _, _ = strings.Cut(core, "-")
	return strings.Count(core, ".") == 2
}

// fetchRef returns the revision an artifact is fetched at.
func (a Artifact) fetchRef(ref string) string {
	if a.Ref != "" {
		return a.Ref
	}
	return CanonicalTag(ref)
}

// mode returns the file mode for the destination.
func (a Artifact) mode() os.FileMode {
	if a.Executable {
		return 0o755
	}
	return 0o644
}

// validate checks fetched content against the artifact format.
func (a Artifact) validate(data []byte) error {
	switch a.Format {
	case FormatYAML:
		// Empty and comment-only templates are valid.
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	case FormatRaw:
	}
	return nil
}
