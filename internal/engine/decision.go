package engine

import (
	"context"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/profile"
)

// Match reason codes, in decreasing specificity. A keyword match always
// wins; among watching reasons the first applicable code is used.
const (
	MatchReasonKeyword     = "KEYWORD_MATCH"
	MatchReasonMentioned   = "MENTIONED"
	MatchReasonAuthor      = "AUTHOR"
	MatchReasonReviewer    = "REVIEWER"
	MatchReasonAssigned    = "ASSIGNED"
	MatchReasonPreferences = "PREFERENCES_MATCH"
)

// Decision-level reason codes for non-matches.
const (
	DecisionReasonNoProfiles = "NO_PROFILES"
	DecisionReasonNoMatch    = "NO_MATCH"
)

// MatchContext snapshots the evaluation state that produced a match.
type MatchContext struct {
	Trigger         event.Trigger    `json:"trigger"`
	SubjectKind     event.SubjectKind `json:"subjectKind"`
	WatchingReasons []WatchingReason `json:"watchingReasons,omitempty"`
}

// ProfileMatch records that one profile decided to notify, and why.
type ProfileMatch struct {
	Profile         profile.NotificationProfile `json:"profile"`
	MatchedKeywords []string                    `json:"matchedKeywords,omitempty"`
	MatchDetails    map[string]string           `json:"matchDetails,omitempty"`
	Reason          string                      `json:"reason"`
	Context         MatchContext                `json:"context"`
}

// Decision is the engine's verdict for one (user, event) pair. Matches
// are ordered by (priority desc, createdAt desc); Primary points at the
// first element when any profile matched.
type Decision struct {
	ShouldNotify bool           `json:"shouldNotify"`
	Matches      []ProfileMatch `json:"matchedProfiles,omitempty"`
	Primary      *ProfileMatch  `json:"primaryProfile,omitempty"`
	Reason       string         `json:"reason"`
}

// Identity is the evaluated user's platform login and team memberships.
type Identity struct {
	Login string
	Teams []event.TeamRef
}

// ProfileStore supplies a user's enabled profiles in precedence order.
type ProfileStore interface {
	EnabledProfiles(ctx context.Context, userID string) ([]profile.NotificationProfile, error)
}

// IdentityStore resolves a user ID to a platform identity.
type IdentityStore interface {
	User(ctx context.Context, userID string) (Identity, error)
}

// TeamRosterResolver resolves a team to its member logins.
type TeamRosterResolver interface {
	MemberLogins(ctx context.Context, org, slug string) ([]string, error)
}

// Instrumenter receives evaluated decisions, fire-and-forget. It must
// never influence the decision itself.
type Instrumenter interface {
	DecisionEvaluated(userID string, ev *event.Event, d *Decision)
}

// matchReason picks the reported reason code for a non-keyword match,
// by first-matching priority among the active watching reasons.
func matchReason(reasons ReasonSet) string {
	switch {
	case reasons.Has(ReasonMentioned) || reasons.Has(ReasonTeamMentioned):
		return MatchReasonMentioned
	case reasons.Has(ReasonAuthor):
		return MatchReasonAuthor
	case reasons.Has(ReasonReviewer) || reasons.Has(ReasonTeamReviewer):
		return MatchReasonReviewer
	case reasons.Has(ReasonAssigned) || reasons.Has(ReasonTeamAssigned):
		return MatchReasonAssigned
	default:
		return MatchReasonPreferences
	}
}
