package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/HartBrook/cpf/internal/cache"
	"github.com/HartBrook/cpf/internal/config"
	"github.com/HartBrook/cpf/internal/errors"
	"github.com/HartBrook/cpf/internal/github"
)

// DefaultRemotePath is fetched when --repo is given without --path.
const DefaultRemotePath = "CLAUDE.md"

type fileFetcher interface {
	FetchFile(ctx context.Context, owner, repo, path, ref string) (*github.FetchResult, error)
}

// newFetcher is swapped out in tests.
var newFetcher = func() (fileFetcher, error) {
	client, err := github.NewClient()
	if err != nil {
		return nil, err
	}
	return client, nil
}

// remoteSource names one prompt file in a GitHub repo.
type remoteSource struct {
	repo    string
	path    string
	ref     string
	noCache bool
}

// fetchRemote returns the prompt text, from the cache while it is fresh.
// When the fetch fails a stale cached copy is used with a warning.
func fetchRemote(ctx context.Context, cfg *config.Config, src remoteSource, stderr io.Writer) (content, name string, err error) {
	owner, repo, err := config.ParseRepo(src.repo)
	if err != nil {
		return "", "", errors.InvalidRepo(src.repo)
	}
	path := src.path
	if path == "" {
		path = DefaultRemotePath
	}
	key := cache.Key{Owner: owner, Repo: repo, Path: path, Ref: src.ref}
	name = fmt.Sprintf("%s/%s/%s", owner, repo, path)

	if !cfg.IsTrustedSource(owner + "/" + repo) {
		printWarning(stderr, "%s", config.TrustWarning(owner+"/"+repo))
	}

	c := cache.New(config.NewPaths())
	cached, meta, cacheErr := c.Read(key)
	if cacheErr == nil && !src.noCache && !meta.IsStale(cfg.Cache.TTLDuration()) {
		slog.Debug("using cached source", "source", meta.Source(), "fetched", meta.Age())
		return cached, name, nil
	}

	result, err := fetch(ctx, key)
	if err != nil {
		if cacheErr == nil {
			printWarning(stderr, "Fetch failed, using cached copy from %s", meta.Age())
			slog.Debug("fetch failed", "source", name, "error", err)
			return cached, name, nil
		}
		return "", "", errors.GitHubFetchFailed(owner+"/"+repo, err)
	}

	if err := c.Write(key, result.Content, &cache.Metadata{SHA: result.SHA}); err != nil {
		slog.Warn("failed to cache source", "source", name, "error", err)
	}
	return result.Content, name, nil
}

func fetch(ctx context.Context, key cache.Key) (*github.FetchResult, error) {
	fetcher, err := newFetcher()
	if err != nil {
		return nil, err
	}
	return fetcher.FetchFile(ctx, key.Owner, key.Repo, key.Path, key.Ref)
}
