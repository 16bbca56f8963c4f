package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/profile"
)

type fakeRosters struct {
	members map[string][]string
	err     error
	calls   int
}

func (f *fakeRosters) MemberLogins(_ context.Context, org, slug string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.members[org+"/"+slug], nil
}

func scopeEvent() *event.Event {
	return &event.Event{
		Kind:    event.KindIssueComment,
		Trigger: event.TriggerCommented,
		Repo:    event.Repository{ID: "42", FullName: "acme/widgets"},
		Subject: event.Subject{
			Kind:   event.SubjectPullRequest,
			Author: event.Account{Login: "carol"},
			Assignees: []event.Account{
				{Login: "erin"},
			},
		},
		Comment: &event.Comment{Author: event.Account{Login: "frank"}, Body: "hi"},
	}
}

func TestRepositoryFilterScope(t *testing.T) {
	ev := scopeEvent()
	rosters := &fakeRosters{}

	p := &profile.NotificationProfile{
		ID:               "p",
		ScopeType:        profile.ScopeUser,
		RepositoryFilter: profile.RepositoryFilter{Type: profile.FilterSelected, RepoIDs: []string{"42"}},
	}
	if !inScope(context.Background(), rosters, p, ev) {
		t.Error("selected filter containing the repo should pass")
	}

	p.RepositoryFilter.RepoIDs = []string{"99"}
	if inScope(context.Background(), rosters, p, ev) {
		t.Error("selected filter without the repo should fail")
	}

	// Misconfiguration: selected with no repositories always fails.
	p.RepositoryFilter.RepoIDs = nil
	if inScope(context.Background(), rosters, p, ev) {
		t.Error("empty selected filter should always fail")
	}

	p.RepositoryFilter = profile.RepositoryFilter{Type: profile.FilterAll}
	if !inScope(context.Background(), rosters, p, ev) {
		t.Error("all filter should pass")
	}
}

func TestTeamScopePassesWhenRosterInvolved(t *testing.T) {
	ev := scopeEvent()
	p := &profile.NotificationProfile{
		ID:               "p",
		ScopeType:        profile.ScopeTeam,
		ScopeTeam:        &event.TeamRef{Organization: "acme", Slug: "platform"},
		RepositoryFilter: profile.RepositoryFilter{Type: profile.FilterAll},
	}

	// Comment author in roster.
	rosters := &fakeRosters{members: map[string][]string{"acme/platform": {"Frank"}}}
	if !inScope(context.Background(), rosters, p, ev) {
		t.Error("comment author in roster should pass team scope")
	}

	// Assignee in roster.
	rosters = &fakeRosters{members: map[string][]string{"acme/platform": {"erin"}}}
	if !inScope(context.Background(), rosters, p, ev) {
		t.Error("assignee in roster should pass team scope")
	}

	// Nobody involved.
	rosters = &fakeRosters{members: map[string][]string{"acme/platform": {"zoe"}}}
	if inScope(context.Background(), rosters, p, ev) {
		t.Error("uninvolved roster should fail team scope")
	}
}

func TestTeamScopeFailsClosedOnRosterError(t *testing.T) {
	ev := scopeEvent()
	p := &profile.NotificationProfile{
		ID:               "p",
		ScopeType:        profile.ScopeTeam,
		ScopeTeam:        &event.TeamRef{Organization: "acme", Slug: "platform"},
		RepositoryFilter: profile.RepositoryFilter{Type: profile.FilterAll},
	}
	rosters := &fakeRosters{err: errors.New("api unavailable")}

	if inScope(context.Background(), rosters, p, ev) {
		t.Error("roster resolution failure must fail the scope check")
	}
}

func TestUserScopeSkipsRosterLookup(t *testing.T) {
	ev := scopeEvent()
	rosters := &fakeRosters{}
	p := &profile.NotificationProfile{
		ID:               "p",
		ScopeType:        profile.ScopeUser,
		RepositoryFilter: profile.RepositoryFilter{Type: profile.FilterAll},
	}

	if !inScope(context.Background(), rosters, p, ev) {
		t.Error("user scope with all filter should pass")
	}
	if rosters.calls != 0 {
		t.Errorf("user scope should not resolve rosters, got %d calls", rosters.calls)
	}
}
