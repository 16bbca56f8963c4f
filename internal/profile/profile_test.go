package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRepositoryFilterAllows(t *testing.T) {
	all := RepositoryFilter{Type: FilterAll}
	if !all.Allows("42") {
		t.Error("all filter should allow any repository")
	}

	selected := RepositoryFilter{Type: FilterSelected, RepoIDs: []string{"42"}}
	if !selected.Allows("42") {
		t.Error("selected filter should allow a listed repository")
	}
	if selected.Allows("43") {
		t.Error("selected filter should reject an unlisted repository")
	}
}

func TestRepositoryFilterValidate(t *testing.T) {
	if err := (RepositoryFilter{Type: FilterAll}).Validate(); err != nil {
		t.Errorf("all filter should validate, got %v", err)
	}
	if err := (RepositoryFilter{Type: FilterSelected}).Validate(); err == nil {
		t.Error("selected filter with no repositories should fail validation")
	}
	if err := (RepositoryFilter{Type: "bogus"}).Validate(); err == nil {
		t.Error("unknown filter type should fail validation")
	}
	// An empty selected filter allows nothing even before validation.
	if (RepositoryFilter{Type: FilterSelected}).Allows("42") {
		t.Error("empty selected filter must not allow anything")
	}
}

func TestPreferenceDefaults(t *testing.T) {
	p := Preferences{}
	if !p.MuteOwnActivity() {
		t.Error("muteOwnActivity should default to true")
	}
	if p.MuteBotComments() {
		t.Error("muteBotComments should default to false")
	}
	if p.MuteDraftPullRequests() {
		t.Error("muteDraftPullRequests should default to false")
	}

	p = Preferences{KeyMuteOwnActivity: false}
	if p.MuteOwnActivity() {
		t.Error("explicit false should disable muteOwnActivity")
	}
}

func TestSortByPrecedence(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles := []NotificationProfile{
		{ID: "low", Priority: 1, CreatedAt: base},
		{ID: "high", Priority: 5, CreatedAt: base},
		{ID: "newer", Priority: 5, CreatedAt: base.Add(time.Hour)},
	}

	SortByPrecedence(profiles)

	want := []string{"newer", "high", "low"}
	for i, id := range want {
		if profiles[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, profiles[i].ID)
		}
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	data := `profiles:
  - id: p1
    userId: u1
    priority: 3
    enabled: true
    scopeType: user
    repositoryFilter:
      type: all
    preferences:
      pullRequestOpened: true
  - id: p2
    userId: u1
    priority: 9
    enabled: false
    scopeType: user
    repositoryFilter:
      type: all
  - id: broken
    userId: u1
    priority: 1
    enabled: true
    scopeType: team
    repositoryFilter:
      type: all
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := LoadFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.EnabledProfiles(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	// p2 is disabled, "broken" has a team scope without a team.
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("expected only p1, got %+v", got)
	}
	if !got[0].Preferences.Enabled(KeyPullRequestOpened) {
		t.Error("expected pullRequestOpened preference to survive loading")
	}
}
