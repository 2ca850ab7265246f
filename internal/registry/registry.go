// SPDX-License-Identifier: MPL-2.0

package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"cuelang.org/go/cue"

	"github.com/mangimangi/git-dogfood/pkg/cueutil"
)

// DefaultPath is the well-known location of the registry in a consumer repository.
const DefaultPath = ".vendored/config.json"

//go:embed registry_schema.cue
var schema []byte

// ErrUnavailable is the sentinel wrapped by UnavailableError.
var ErrUnavailable = errors.New("vendor registry unavailable")

type (
	// Registry is a read-only snapshot of the vendor registry.
	Registry struct {
		// Vendors holds every registered key. An entry that does not have
		// the vendor shape keeps its key with a zero Vendor.
		Vendors map[string]Vendor
		// Malformed records why an entry in Vendors could not be decoded.
		Malformed map[string]error
	}

	// Vendor is one registered tool.
	Vendor struct {
		Repo          string   `json:"repo"`
		InstallBranch string   `json:"install_branch"`
		Protected     []string `json:"protected"`
		Allowed       []string `json:"allowed"`
		// Private requires the authenticated fetch transport.
		Private   bool `json:"private"`
		Automerge bool `json:"automerge"`
	}

	// UnavailableError reports a registry that is missing or cannot be
	// parsed. Callers resolve it as "no vendor found".
	UnavailableError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("vendor registry %s unavailable: %v", e.Path, e.Err)
}

// Is matches ErrUnavailable.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error { return e.Err }

// Load reads and validates the registry at p. Every failure is an
// *UnavailableError.
func Load(p string) (*Registry, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &UnavailableError{Path: p, Err: err}
	}
	reg, err := Parse(data, p)
	if err != nil {
		return nil, &UnavailableError{Path: p, Err: err}
	}
	return reg, nil
}

// Parse reads the registry in data. name appears in errors.
//
// Only the outer shape is fatal: the document must be an object and vendors,
// when present, a mapping. Each entry is then checked against #Vendor on its
// own, so a badly shaped entry of another tool is recorded in Malformed
// instead of failing the whole registry.
func Parse(data []byte, name string) (*Registry, error) {
	v, err := cueutil.Validate(schema, data, "#Registry", cueutil.WithFilename(name))
	if err != nil {
		return nil, err
	}

	reg := &Registry{Vendors: map[string]Vendor{}}
	vendors := v.LookupPath(cue.ParsePath("vendors"))
	if !vendors.Exists() {
		return reg, nil
	}

	iter, err := vendors.Fields()
	if err != nil {
		return nil, cueutil.FormatError(err, name)
	}
	for iter.Next() {
		key := iter.Selector().Unquoted()
		entry, err := cueutil.DecodeValue[Vendor](schema, iter.Value(), "#Vendor",
			cueutil.WithFilename(name+": vendors."+key))
		if err != nil {
			if reg.Malformed == nil {
				reg.Malformed = map[string]error{}
			}
			reg.Malformed[key] = err
			reg.Vendors[key] = Vendor{}
			continue
		}
		reg.Vendors[key] = *entry
	}
	return reg, nil
}

// Protects reports whether the vendor entry shields p from ordinary edits:
// p matches a protected glob and no allowed glob.
func (v Vendor) Protects(p string) bool {
	return matchAny(v.Protected, p) && !matchAny(v.Allowed, p)
}

// matchAny reports whether p matches one of the globs. A trailing "/**"
// matches everything below the prefix directory.
func matchAny(globs []string, p string) bool {
	for _, g := range globs {
		if prefix, ok := strings.CutSuffix(g, "/**"); ok {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(g, p); ok { //nolint:errcheck // malformed globs never match
			return true
		}
	}
	return false
}
