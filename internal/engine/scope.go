package engine

import (
	"context"
	"strings"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/log"
	"github.com/gitpulse/gitpulse/internal/profile"
)

// inScope checks whether an event falls inside a profile's configured
// scope: the repository filter first, then for team-scoped profiles
// whether anyone involved in the event belongs to the scoped team.
// Roster resolution failure fails closed.
func inScope(ctx context.Context, rosters TeamRosterResolver, p *profile.NotificationProfile, ev *event.Event) bool {
	if err := p.RepositoryFilter.Validate(); err != nil {
		log.Warn("misconfigured repository filter", "profile", p.ID, "error", err)
		return false
	}
	if !p.RepositoryFilter.Allows(ev.Repo.ID) {
		return false
	}

	if p.ScopeType != profile.ScopeTeam {
		return true
	}
	if p.ScopeTeam == nil {
		log.Warn("team-scoped profile has no team", "profile", p.ID)
		return false
	}

	logins, err := rosters.MemberLogins(ctx, p.ScopeTeam.Organization, p.ScopeTeam.Slug)
	if err != nil {
		log.Warn("team roster resolution failed, profile out of scope",
			"profile", p.ID, "team", p.ScopeTeam.String(), "error", err)
		return false
	}

	roster := make(map[string]bool, len(logins))
	for _, l := range logins {
		roster[strings.ToLower(l)] = true
	}
	for _, login := range involvedLogins(ev) {
		if roster[strings.ToLower(login)] {
			return true
		}
	}
	return false
}

// involvedLogins collects everyone connected to the event: the subject
// author, requested reviewers, assignees, and the author of the
// triggering comment or review.
func involvedLogins(ev *event.Event) []string {
	var out []string
	add := func(login string) {
		if login != "" {
			out = append(out, login)
		}
	}

	add(ev.Subject.Author.Login)
	for _, r := range ev.Subject.RequestedReviewers {
		add(r.Login)
	}
	for _, a := range ev.Subject.Assignees {
		add(a.Login)
	}
	if ev.Comment != nil {
		add(ev.Comment.Author.Login)
	}
	if ev.Review != nil {
		add(ev.Review.Author.Login)
	}
	return out
}
