package cmd

import (
	"testing"

	"github.com/gitpulse/gitpulse/internal/event"
)

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Use != "gitpulse" {
		t.Errorf("expected Use to be 'gitpulse', got %q", cmd.Use)
	}
}

func TestNewCmdEvaluate(t *testing.T) {
	opts := &Options{}
	cmd := NewCmdEvaluate(opts)
	if cmd == nil {
		t.Fatal("NewCmdEvaluate() returned nil")
	}
	if cmd.Use != "evaluate" {
		t.Errorf("expected Use to be 'evaluate', got %q", cmd.Use)
	}
}

func TestNewCmdConfig(t *testing.T) {
	cmd := NewCmdConfig()
	if cmd == nil {
		t.Fatal("NewCmdConfig() returned nil")
	}
	if cmd.Use != "config" {
		t.Errorf("expected Use to be 'config', got %q", cmd.Use)
	}
}

func TestNewCmdVersion(t *testing.T) {
	cmd := NewCmdVersion()
	if cmd == nil {
		t.Fatal("NewCmdVersion() returned nil")
	}
	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %q", cmd.Use)
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2024-01-01")
	// Just verify it doesn't panic - version info is in package vars
}

func TestParseTeams(t *testing.T) {
	teams, err := parseTeams([]string{"acme/platform", "acme/infra"})
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0] != (event.TeamRef{Organization: "acme", Slug: "platform"}) {
		t.Errorf("unexpected team: %+v", teams[0])
	}

	if _, err := parseTeams([]string{"noslash"}); err == nil {
		t.Error("expected error for team without slug")
	}
	if _, err := parseTeams([]string{"/empty-org"}); err == nil {
		t.Error("expected error for empty org")
	}
}

func TestStaticIdentity(t *testing.T) {
	id := staticIdentity{
		login: "octocat",
		teams: []event.TeamRef{{Organization: "acme", Slug: "platform"}},
	}

	got, err := id.User(t.Context(), "octocat")
	if err != nil {
		t.Fatal(err)
	}
	if got.Login != "octocat" || len(got.Teams) != 1 {
		t.Errorf("unexpected identity: %+v", got)
	}
}

func TestOfflineRostersFailClosed(t *testing.T) {
	_, err := offlineRosters{}.MemberLogins(t.Context(), "acme", "platform")
	if err == nil {
		t.Error("expected roster resolution to fail without a client")
	}
}
