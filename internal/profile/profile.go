// Package profile contains the notification profile model. Profiles are
// owned and mutated by the profile management API; the decision engine
// only ever reads them.
package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/gitpulse/gitpulse/internal/event"
)

// ScopeType says whether a profile watches the user's own involvement
// or a specific team's activity.
type ScopeType string

const (
	ScopeUser ScopeType = "user"
	ScopeTeam ScopeType = "team"
)

// PreferenceKey names a boolean switch in a profile's preference map.
type PreferenceKey string

const (
	KeyIssueOpened     PreferenceKey = "issueOpened"
	KeyIssueReopened   PreferenceKey = "issueReopened"
	KeyIssueClosed     PreferenceKey = "issueClosed"
	KeyIssueCommented  PreferenceKey = "issueCommented"
	KeyIssueAssigned   PreferenceKey = "issueAssigned"
	KeyIssueUnassigned PreferenceKey = "issueUnassigned"
	KeyMentionInIssue  PreferenceKey = "mentionInIssue"

	KeyPullRequestOpened               PreferenceKey = "pullRequestOpened"
	KeyPullRequestReopened             PreferenceKey = "pullRequestReopened"
	KeyPullRequestClosed               PreferenceKey = "pullRequestClosed"
	KeyPullRequestMerged               PreferenceKey = "pullRequestMerged"
	KeyPullRequestReviewed             PreferenceKey = "pullRequestReviewed"
	KeyPullRequestCommented            PreferenceKey = "pullRequestCommented"
	KeyPullRequestAssigned             PreferenceKey = "pullRequestAssigned"
	KeyPullRequestUnassigned           PreferenceKey = "pullRequestUnassigned"
	KeyPullRequestReviewRequested      PreferenceKey = "pullRequestReviewRequested"
	KeyPullRequestReviewRequestRemoved PreferenceKey = "pullRequestReviewRequestRemoved"
	KeyMentionInPullRequest            PreferenceKey = "mentionInPullRequest"
	KeyCheckFailed                     PreferenceKey = "checkFailed"
	KeyCheckSucceeded                  PreferenceKey = "checkSucceeded"

	KeyMuteOwnActivity       PreferenceKey = "muteOwnActivity"
	KeyMuteBotComments       PreferenceKey = "muteBotComments"
	KeyMuteDraftPullRequests PreferenceKey = "muteDraftPullRequests"
)

// Preferences is a profile's boolean preference map. Absent keys read
// as false, except muteOwnActivity which defaults to true.
type Preferences map[PreferenceKey]bool

// Enabled reports whether the given preference is explicitly on.
func (p Preferences) Enabled(key PreferenceKey) bool {
	return p[key]
}

// MuteOwnActivity reports whether the user's own actions are muted.
// Unset means muted; only an explicit false turns it off.
func (p Preferences) MuteOwnActivity() bool {
	if v, ok := p[KeyMuteOwnActivity]; ok {
		return v
	}
	return true
}

// MuteBotComments reports whether bot activity is muted.
func (p Preferences) MuteBotComments() bool {
	return p[KeyMuteBotComments]
}

// MuteDraftPullRequests reports whether draft pull requests are muted.
func (p Preferences) MuteDraftPullRequests() bool {
	return p[KeyMuteDraftPullRequests]
}

// FilterType selects the repository filter mode.
type FilterType string

const (
	FilterAll      FilterType = "all"
	FilterSelected FilterType = "selected"
)

// RepositoryFilter limits a profile to all or selected repositories.
type RepositoryFilter struct {
	Type    FilterType `yaml:"type" json:"type"`
	RepoIDs []string   `yaml:"repoIds,omitempty" json:"repoIds,omitempty"`
}

// Validate checks the filter invariant: a selected filter must name at
// least one repository.
func (f RepositoryFilter) Validate() error {
	switch f.Type {
	case FilterAll:
		return nil
	case FilterSelected:
		if len(f.RepoIDs) == 0 {
			return fmt.Errorf("selected repository filter has no repositories")
		}
		return nil
	default:
		return fmt.Errorf("unknown repository filter type %q", f.Type)
	}
}

// Allows reports whether the given repository passes the filter. An
// invalid filter allows nothing.
func (f RepositoryFilter) Allows(repoID string) bool {
	if f.Type == FilterAll {
		return true
	}
	for _, id := range f.RepoIDs {
		if id == repoID {
			return true
		}
	}
	return false
}

// NotificationProfile is a user-configured rule bundle that can
// independently produce a notification.
type NotificationProfile struct {
	ID        string    `yaml:"id" json:"id"`
	UserID    string    `yaml:"userId" json:"userId"`
	Name      string    `yaml:"name,omitempty" json:"name,omitempty"`
	Priority  int       `yaml:"priority" json:"priority"`
	CreatedAt time.Time `yaml:"createdAt" json:"createdAt"`
	Enabled   bool      `yaml:"enabled" json:"enabled"`

	ScopeType ScopeType      `yaml:"scopeType" json:"scopeType"`
	ScopeTeam *event.TeamRef `yaml:"scopeTeam,omitempty" json:"scopeTeam,omitempty"`

	RepositoryFilter RepositoryFilter `yaml:"repositoryFilter" json:"repositoryFilter"`
	Preferences      Preferences      `yaml:"preferences" json:"preferences"`

	Keywords               []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	KeywordMatchingEnabled bool     `yaml:"keywordMatchingEnabled" json:"keywordMatchingEnabled"`
}

// Validate checks profile invariants that the engine relies on.
func (p *NotificationProfile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile has no id")
	}
	if p.ScopeType == ScopeTeam && p.ScopeTeam == nil {
		return fmt.Errorf("profile %s: team scope without a team", p.ID)
	}
	return p.RepositoryFilter.Validate()
}

// SortByPrecedence orders profiles by (priority desc, createdAt desc).
// This order is precedence order: the first matching profile becomes
// the primary profile of a decision.
func SortByPrecedence(profiles []NotificationProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Priority != profiles[j].Priority {
			return profiles[i].Priority > profiles[j].Priority
		}
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
}
