// Package github implements the engine's collaborator interfaces
// against the GitHub API.
package github

import (
	"context"
	"fmt"
	"os"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/gitpulse/gitpulse/internal/engine"
	"github.com/gitpulse/gitpulse/internal/event"
)

// Client wraps the GitHub API client
type Client struct {
	client *github.Client
}

// Compile-time checks that Client satisfies the engine's collaborator
// interfaces.
var (
	_ engine.IdentityStore      = (*Client)(nil)
	_ engine.TeamRosterResolver = (*Client)(nil)
	_ event.SubjectFetcher      = (*Client)(nil)
)

// NewClient creates a new GitHub client using a personal access token
func NewClient(token string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set GITHUB_TOKEN env var")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{client: github.NewClient(tc)}, nil
}
