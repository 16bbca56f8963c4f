package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"

	"github.com/gitpulse/gitpulse/internal/engine"
	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/log"
)

// User resolves a login to a platform identity. Team memberships are
// only visible for the authenticated user (the API does not expose
// another user's teams); for other logins the identity carries an
// empty team list.
func (c *Client) User(ctx context.Context, userID string) (engine.Identity, error) {
	me, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return engine.Identity{}, fmt.Errorf("failed to get authenticated user: %w", err)
	}

	login := userID
	if login == "" {
		login = me.GetLogin()
	}
	if login != me.GetLogin() {
		log.Debug("team memberships unavailable for other users", "login", login)
		return engine.Identity{Login: login}, nil
	}

	teams, err := c.listUserTeams(ctx)
	if err != nil {
		return engine.Identity{}, err
	}
	return engine.Identity{Login: login, Teams: teams}, nil
}

func (c *Client) listUserTeams(ctx context.Context) ([]event.TeamRef, error) {
	opts := &github.ListOptions{PerPage: 100}
	var out []event.TeamRef
	for {
		teams, resp, err := c.client.Teams.ListUserTeams(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list user teams: %w", err)
		}
		for _, t := range teams {
			out = append(out, event.TeamRef{
				Organization: t.GetOrganization().GetLogin(),
				Slug:         t.GetSlug(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// MemberLogins resolves a team to its member logins.
func (c *Client) MemberLogins(ctx context.Context, org, slug string) ([]string, error) {
	opts := &github.TeamListTeamMembersOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var logins []string
	for {
		members, resp, err := c.client.Teams.ListTeamMembersBySlug(ctx, org, slug, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s/%s: %w", org, slug, err)
		}
		for _, m := range members {
			logins = append(logins, m.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return logins, nil
}

// PullRequest fetches the full pull request object behind an issue stub.
func (c *Client) PullRequest(ctx context.Context, owner, repo string, number int) (*event.Subject, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get PR #%d: %w", number, err)
	}
	return event.SubjectFromPullRequest(pr), nil
}
