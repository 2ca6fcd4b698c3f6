package dirhost

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const manifestExt = ".toml"

// ErrIncompleteManifest is returned for manifests without a version, which
// usually means the file is still being written.
var ErrIncompleteManifest = errors.New("pkgwatch: manifest has no version")

// Manifest is the on-disk description of an installed package.
type Manifest struct {
	Version string `toml:"version"`
	Enabled *bool  `toml:"enabled"`
}

// IsEnabled returns the enabled flag, defaulting to true when absent.
func (m Manifest) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := toml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if m.Version == "" {
		return m, ErrIncompleteManifest
	}
	return m, nil
}

// packageID maps a manifest file name to its package identifier. Hidden
// files and files without the manifest extension are not manifests.
func packageID(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, manifestExt) {
		return "", false
	}
	id := strings.TrimSuffix(base, manifestExt)
	return id, id != ""
}
