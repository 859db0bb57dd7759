package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"
)

// Client wraps the GitHub API for fetching prompt sources.
type Client struct {
	rest *api.RESTClient
}

// FetchResult contains the result of a fetch operation.
type FetchResult struct {
	Content string
	SHA     string
}

// NewClient creates a GitHub client, authenticated when GetToken finds a
// token and anonymous otherwise. Anonymous clients only see public repos.
func NewClient() (*Client, error) {
	token, err := GetToken()
	if err != nil {
		slog.Debug("no GitHub token, using anonymous client", "error", err)
		return NewUnauthenticatedClient()
	}
	return NewClientWithToken(token)
}

// NewClientWithToken creates a GitHub client with explicit token.
func NewClientWithToken(token string) (*Client, error) {
	client, err := api.NewRESTClient(api.ClientOptions{
		AuthToken: token,
	})
	if err != nil {
		return nil, err
	}
	return &Client{rest: client}, nil
}

// NewUnauthenticatedClient creates a GitHub client without authentication.
// This works for public repositories only and has lower rate limits (60/hour).
func NewUnauthenticatedClient() (*Client, error) {
	client, err := api.NewRESTClient(api.ClientOptions{})
	if err != nil {
		return nil, err
	}
	return &Client{rest: client}, nil
}

// newClientWithOptions lets tests swap the transport.
func newClientWithOptions(opts api.ClientOptions) (*Client, error) {
	client, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, err
	}
	return &Client{rest: client}, nil
}

// fileContentsResponse represents GitHub's contents API response.
type fileContentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

// FetchFile fetches a file from a repo. An empty ref means the default branch.
func (c *Client) FetchFile(ctx context.Context, owner, repo, path, ref string) (*FetchResult, error) {
	if owner == "" || repo == "" || path == "" {
		return nil, fmt.Errorf("owner, repo, and path are required")
	}

	endpoint := fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, escapePath(path))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	slog.Debug("fetching prompt source", "owner", owner, "repo", repo, "path", path, "ref", ref)

	var response fileContentsResponse
	if err := c.rest.DoWithContext(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	if response.Type != "file" {
		return nil, fmt.Errorf("%s is a %s, not a file", path, response.Type)
	}

	// The contents API wraps base64 at 60 columns.
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(response.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	return &FetchResult{
		Content: string(content),
		SHA:     response.SHA,
	}, nil
}

func escapePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
