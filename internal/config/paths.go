package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths provides all cpf-related filesystem paths.
type Paths struct {
	ConfigDir  string // ~/.config/cpf
	CacheDir   string // ~/.cache/cpf
	ConfigFile string // ~/.config/cpf/config.yaml
}

// NewPaths creates Paths using ~/.config and ~/.cache directories.
// We use these paths explicitly for cross-platform consistency rather than
// platform-specific defaults (like ~/Library/Application Support on macOS).
func NewPaths() *Paths {
	home := os.Getenv("HOME")
	return NewPathsWithOverrides(
		filepath.Join(home, ".config", "cpf"),
		filepath.Join(home, ".cache", "cpf"),
	)
}

// NewPathsWithOverrides allows overriding directories for testing.
func NewPathsWithOverrides(configDir, cacheDir string) *Paths {
	return &Paths{
		ConfigDir:  configDir,
		CacheDir:   cacheDir,
		ConfigFile: filepath.Join(configDir, "config.yaml"),
	}
}

// CacheFile returns the path for a cached remote source file.
func (p *Paths) CacheFile(owner, repo, path string) string {
	return filepath.Join(p.CacheDir, cacheKey(owner, repo, path))
}

// CacheMetadataFile returns the path for the cache metadata sidecar.
func (p *Paths) CacheMetadataFile(owner, repo, path string) string {
	return filepath.Join(p.CacheDir, cacheKey(owner, repo, path)+".meta.json")
}

// cacheKey flattens owner/repo/path into a single file name.
func cacheKey(owner, repo, path string) string {
	flat := strings.NewReplacer("/", "--", "\\", "--").Replace(strings.Trim(path, "/"))
	return fmt.Sprintf("%s-%s-%s", owner, repo, flat)
}
