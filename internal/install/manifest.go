// SPDX-License-Identifier: MPL-2.0

package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manifest is the ordered list of destination paths written during one pass.
type Manifest []string

// String renders one path per line, each terminated by a newline.
func (m Manifest) String() string {
	var b strings.Builder
	for _, p := range m {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile replaces the file at path with the manifest. The content goes
// through a temp file in the same directory and is renamed into place, so a
// reader sees either the previous file or the complete new one.
func (m Manifest) WriteFile(path string) error {
	if err := writeFileAtomic(path, []byte(m.String()), 0o644); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	return nil
}

// writeFileAtomic writes data to path through a temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dogfood-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	// CreateTemp uses 0600; apply the final mode before the rename.
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	renamed = true

	return nil
}
