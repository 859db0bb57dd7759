package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/HartBrook/cpf/internal/config"
	"github.com/HartBrook/cpf/internal/errors"
)

// Key identifies one remote prompt file.
type Key struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // Empty for the default branch
}

func (k Key) file() string {
	if k.Ref == "" {
		return k.Path
	}
	return k.Path + "@" + k.Ref
}

// Cache manages locally cached prompt sources.
type Cache struct {
	paths *config.Paths
}

// New creates a cache manager.
func New(paths *config.Paths) *Cache {
	return &Cache{paths: paths}
}

// Read returns cached content and metadata, or error if not cached.
func (c *Cache) Read(k Key) (content string, meta *Metadata, err error) {
	contentPath := c.paths.CacheFile(k.Owner, k.Repo, k.file())
	metaPath := c.paths.CacheMetadataFile(k.Owner, k.Repo, k.file())

	contentBytes, err := os.ReadFile(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.CacheNotFound(k.Owner + "/" + k.Repo + "/" + k.Path)
		}
		return "", nil, err
	}

	// Without readable metadata the copy counts as fetched long ago.
	minimal := &Metadata{Owner: k.Owner, Repo: k.Repo, Path: k.Path, Ref: k.Ref}
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		slog.Debug("cache metadata missing", "path", metaPath, "error", err)
		return string(contentBytes), minimal, nil
	}
	meta = &Metadata{}
	if err := json.Unmarshal(metaBytes, meta); err != nil {
		slog.Debug("cache metadata unreadable", "path", metaPath, "error", err)
		return string(contentBytes), minimal, nil
	}

	return string(contentBytes), meta, nil
}

// Write stores content and metadata.
func (c *Cache) Write(k Key, content string, meta *Metadata) error {
	if err := os.MkdirAll(c.paths.CacheDir, 0755); err != nil {
		return err
	}

	contentPath := c.paths.CacheFile(k.Owner, k.Repo, k.file())
	metaPath := c.paths.CacheMetadataFile(k.Owner, k.Repo, k.file())

	if meta.LastFetched.IsZero() {
		meta.LastFetched = time.Now()
	}
	meta.Owner = k.Owner
	meta.Repo = k.Repo
	meta.Path = k.Path
	meta.Ref = k.Ref

	if err := os.WriteFile(contentPath, []byte(content), 0644); err != nil {
		return err
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, metaBytes, 0644)
}
