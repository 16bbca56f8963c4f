package engine

import (
	"fmt"
	"strings"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/profile"
)

// prefKey addresses the trigger preference table by normalized trigger
// and subject kind.
type prefKey struct {
	trigger event.Trigger
	subject event.SubjectKind
}

// triggerPreferences maps every (trigger, subject kind) combination to
// the preference switch that controls it. Triggers without an entry for
// a subject kind cannot notify for that kind (MERGED on an issue, for
// example). The table is verified complete at init.
var triggerPreferences = map[prefKey]profile.PreferenceKey{
	{event.TriggerOpened, event.SubjectIssue}:          profile.KeyIssueOpened,
	{event.TriggerOpened, event.SubjectPullRequest}:    profile.KeyPullRequestOpened,
	{event.TriggerReopened, event.SubjectIssue}:        profile.KeyIssueReopened,
	{event.TriggerReopened, event.SubjectPullRequest}:  profile.KeyPullRequestReopened,
	{event.TriggerClosed, event.SubjectIssue}:          profile.KeyIssueClosed,
	{event.TriggerClosed, event.SubjectPullRequest}:    profile.KeyPullRequestClosed,
	{event.TriggerMerged, event.SubjectPullRequest}:    profile.KeyPullRequestMerged,
	{event.TriggerReviewed, event.SubjectPullRequest}:  profile.KeyPullRequestReviewed,
	{event.TriggerCommented, event.SubjectIssue}:       profile.KeyIssueCommented,
	{event.TriggerCommented, event.SubjectPullRequest}: profile.KeyPullRequestCommented,
	{event.TriggerAssigned, event.SubjectIssue}:        profile.KeyIssueAssigned,
	{event.TriggerAssigned, event.SubjectPullRequest}:  profile.KeyPullRequestAssigned,
	{event.TriggerUnassigned, event.SubjectIssue}:      profile.KeyIssueUnassigned,
	{event.TriggerUnassigned, event.SubjectPullRequest}: profile.KeyPullRequestUnassigned,
	{event.TriggerReviewRequested, event.SubjectPullRequest}:      profile.KeyPullRequestReviewRequested,
	{event.TriggerReviewRequestRemoved, event.SubjectPullRequest}: profile.KeyPullRequestReviewRequestRemoved,
	{event.TriggerCheckFailed, event.SubjectPullRequest}:          profile.KeyCheckFailed,
	{event.TriggerCheckSucceeded, event.SubjectPullRequest}:       profile.KeyCheckSucceeded,
}

func init() {
	if err := validateTriggerTable(); err != nil {
		panic(err)
	}
}

// validateTriggerTable ensures every known trigger is mapped for at
// least one subject kind, so an unmapped trigger is caught when the
// package loads rather than silently never notifying.
func validateTriggerTable() error {
	for _, trigger := range event.AllTriggers {
		_, pr := triggerPreferences[prefKey{trigger, event.SubjectPullRequest}]
		_, issue := triggerPreferences[prefKey{trigger, event.SubjectIssue}]
		if !pr && !issue {
			return fmt.Errorf("trigger %s has no preference mapping", trigger)
		}
	}
	return nil
}

// shouldNotify applies a profile's preference map to a resolved event.
// Rules apply in order; the first applicable rule wins:
//
//  1. own activity muted (default on)
//  2. bot activity muted
//  3. draft pull requests muted
//  4. mentions bypass the trigger table
//  5. trigger table lookup, with the assignment and review-request
//     triggers additionally requiring the matching watching reason
//
// Unknown or unmapped triggers never notify.
func shouldNotify(prefs profile.Preferences, ev *event.Event, reasons ReasonSet, userLogin string) bool {
	if strings.EqualFold(ev.Sender.Login, userLogin) && prefs.MuteOwnActivity() {
		return false
	}
	if ev.Sender.Bot && prefs.MuteBotComments() {
		return false
	}
	if ev.Subject.IsPullRequest() && prefs.MuteDraftPullRequests() && ev.Subject.IsDraft {
		return false
	}

	if reasons.Has(ReasonMentioned) || reasons.Has(ReasonTeamMentioned) {
		if ev.Subject.IsPullRequest() {
			return prefs.Enabled(profile.KeyMentionInPullRequest)
		}
		return prefs.Enabled(profile.KeyMentionInIssue)
	}

	switch ev.Trigger {
	case event.TriggerAssigned, event.TriggerUnassigned:
		if !reasons.Has(ReasonAssigned) {
			return false
		}
	case event.TriggerReviewRequested, event.TriggerReviewRequestRemoved:
		if !reasons.Has(ReasonReviewer) && !reasons.Has(ReasonTeamReviewer) {
			return false
		}
	}

	key, ok := triggerPreferences[prefKey{ev.Trigger, ev.Subject.Kind}]
	if !ok {
		return false
	}
	return prefs.Enabled(key)
}
