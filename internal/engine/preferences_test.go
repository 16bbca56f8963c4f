package engine

import (
	"testing"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/profile"
)

func prCommentEvent(sender string, senderBot bool) *event.Event {
	return &event.Event{
		Kind:    event.KindIssueComment,
		Trigger: event.TriggerCommented,
		Sender:  event.Account{Login: sender, Bot: senderBot},
		Subject: event.Subject{
			Kind:   event.SubjectPullRequest,
			Author: event.Account{Login: "carol"},
		},
	}
}

func TestSelfMuteDefaultsOn(t *testing.T) {
	ev := prCommentEvent("bob", false)
	prefs := profile.Preferences{profile.KeyPullRequestCommented: true}

	if shouldNotify(prefs, ev, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("own activity should be muted by default")
	}

	prefs[profile.KeyMuteOwnActivity] = false
	if !shouldNotify(prefs, ev, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("explicit muteOwnActivity=false should allow own activity")
	}
}

func TestBotMute(t *testing.T) {
	ev := prCommentEvent("ci-bot", true)
	prefs := profile.Preferences{profile.KeyPullRequestCommented: true}

	if !shouldNotify(prefs, ev, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("bot activity should pass when muteBotComments is unset")
	}

	prefs[profile.KeyMuteBotComments] = true
	if shouldNotify(prefs, ev, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("bot activity should be suppressed when muteBotComments is set")
	}
}

func TestDraftMute(t *testing.T) {
	ev := &event.Event{
		Kind:    event.KindPullRequest,
		Trigger: event.TriggerOpened,
		Sender:  event.Account{Login: "carol"},
		Subject: event.Subject{
			Kind:    event.SubjectPullRequest,
			Author:  event.Account{Login: "carol"},
			IsDraft: true,
		},
	}
	prefs := profile.Preferences{
		profile.KeyPullRequestOpened:     true,
		profile.KeyMuteDraftPullRequests: true,
	}

	if shouldNotify(prefs, ev, NewReasonSet(), "bob") {
		t.Error("draft pull request should be suppressed")
	}

	ev.Subject.IsDraft = false
	if !shouldNotify(prefs, ev, NewReasonSet(), "bob") {
		t.Error("non-draft pull request should notify")
	}
}

func TestMentionOverridesTriggerTable(t *testing.T) {
	ev := prCommentEvent("carol", false)
	prefs := profile.Preferences{
		profile.KeyPullRequestCommented: false,
		profile.KeyMentionInPullRequest: true,
	}

	if !shouldNotify(prefs, ev, NewReasonSet(ReasonMentioned), "alice") {
		t.Error("mention should bypass the disabled commented preference")
	}

	prefs[profile.KeyMentionInPullRequest] = false
	if shouldNotify(prefs, ev, NewReasonSet(ReasonMentioned), "alice") {
		t.Error("mention with disabled mention preference should not notify")
	}
}

func TestMentionUsesKindAppropriateKey(t *testing.T) {
	ev := &event.Event{
		Kind:    event.KindIssueComment,
		Trigger: event.TriggerCommented,
		Sender:  event.Account{Login: "carol"},
		Subject: event.Subject{Kind: event.SubjectIssue, Author: event.Account{Login: "carol"}},
	}
	prefs := profile.Preferences{
		profile.KeyMentionInIssue:       true,
		profile.KeyMentionInPullRequest: false,
	}

	if !shouldNotify(prefs, ev, NewReasonSet(ReasonTeamMentioned), "alice") {
		t.Error("issue mention should consult mentionInIssue")
	}
}

func TestTriggerTableBranchesOnSubjectKind(t *testing.T) {
	issueEv := &event.Event{
		Kind:    event.KindIssueComment,
		Trigger: event.TriggerCommented,
		Sender:  event.Account{Login: "carol"},
		Subject: event.Subject{Kind: event.SubjectIssue, Author: event.Account{Login: "carol"}},
	}
	prefs := profile.Preferences{
		profile.KeyIssueCommented:       true,
		profile.KeyPullRequestCommented: false,
	}
	if !shouldNotify(prefs, issueEv, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("issue comment should consult issueCommented")
	}

	prEv := prCommentEvent("carol", false)
	if shouldNotify(prefs, prEv, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("pull request comment should consult pullRequestCommented")
	}
}

func TestAssignedTriggerRequiresAssignedReason(t *testing.T) {
	ev := &event.Event{
		Kind:    event.KindPullRequest,
		Trigger: event.TriggerAssigned,
		Sender:  event.Account{Login: "carol"},
		Subject: event.Subject{Kind: event.SubjectPullRequest, Author: event.Account{Login: "bob"}},
	}
	prefs := profile.Preferences{profile.KeyPullRequestAssigned: true}

	if shouldNotify(prefs, ev, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("assigned trigger without ASSIGNED reason should not notify")
	}
	if !shouldNotify(prefs, ev, NewReasonSet(ReasonAssigned), "bob") {
		t.Error("assigned trigger with ASSIGNED reason should notify")
	}
}

func TestReviewRequestTriggerRequiresReviewerReason(t *testing.T) {
	ev := &event.Event{
		Kind:    event.KindPullRequest,
		Trigger: event.TriggerReviewRequested,
		Sender:  event.Account{Login: "carol"},
		Subject: event.Subject{Kind: event.SubjectPullRequest, Author: event.Account{Login: "bob"}},
	}
	prefs := profile.Preferences{profile.KeyPullRequestReviewRequested: true}

	if shouldNotify(prefs, ev, NewReasonSet(), "bob") {
		t.Error("review request without reviewer reason should not notify")
	}
	if !shouldNotify(prefs, ev, NewReasonSet(ReasonTeamReviewer), "bob") {
		t.Error("review request with TEAM_REVIEWER reason should notify")
	}
}

func TestUnmappedTriggerKindNeverNotifies(t *testing.T) {
	// MERGED has no issue mapping.
	ev := &event.Event{
		Kind:    event.KindIssue,
		Trigger: event.TriggerMerged,
		Sender:  event.Account{Login: "carol"},
		Subject: event.Subject{Kind: event.SubjectIssue, Author: event.Account{Login: "bob"}},
	}
	prefs := profile.Preferences{profile.KeyPullRequestMerged: true}

	if shouldNotify(prefs, ev, NewReasonSet(ReasonAuthor), "bob") {
		t.Error("merged issue has no preference mapping and must not notify")
	}
}

func TestTriggerTableIsComplete(t *testing.T) {
	if err := validateTriggerTable(); err != nil {
		t.Fatal(err)
	}
	for _, trigger := range event.AllTriggers {
		_, pr := triggerPreferences[prefKey{trigger, event.SubjectPullRequest}]
		_, issue := triggerPreferences[prefKey{trigger, event.SubjectIssue}]
		if !pr && !issue {
			t.Errorf("trigger %s is unmapped", trigger)
		}
	}
}
