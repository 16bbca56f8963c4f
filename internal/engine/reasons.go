package engine

import (
	"regexp"
	"strings"

	"github.com/gitpulse/gitpulse/internal/event"
)

// WatchingReason is the relationship explaining why a user cares about
// a subject.
type WatchingReason string

const (
	ReasonAuthor        WatchingReason = "AUTHOR"
	ReasonReviewer      WatchingReason = "REVIEWER"
	ReasonTeamReviewer  WatchingReason = "TEAM_REVIEWER"
	ReasonAssigned      WatchingReason = "ASSIGNED"
	ReasonTeamAssigned  WatchingReason = "TEAM_ASSIGNED"
	ReasonMentioned     WatchingReason = "MENTIONED"
	ReasonTeamMentioned WatchingReason = "TEAM_MENTIONED"
)

// reasonOrder is the canonical presentation order for reason sets.
var reasonOrder = []WatchingReason{
	ReasonAuthor,
	ReasonReviewer,
	ReasonTeamReviewer,
	ReasonAssigned,
	ReasonTeamAssigned,
	ReasonMentioned,
	ReasonTeamMentioned,
}

// ReasonSet is an immutable-by-convention set of watching reasons.
type ReasonSet map[WatchingReason]struct{}

// NewReasonSet builds a set from the given reasons.
func NewReasonSet(reasons ...WatchingReason) ReasonSet {
	s := make(ReasonSet, len(reasons))
	for _, r := range reasons {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the reason.
func (s ReasonSet) Has(r WatchingReason) bool {
	_, ok := s[r]
	return ok
}

// Empty reports whether no reason applies.
func (s ReasonSet) Empty() bool {
	return len(s) == 0
}

// Sorted returns the reasons in canonical order.
func (s ReasonSet) Sorted() []WatchingReason {
	out := make([]WatchingReason, 0, len(s))
	for _, r := range reasonOrder {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// ResolveReasons determines why the user is connected to the event's
// subject. It is a pure function of its inputs; any internal failure
// (for example an unparseable mention pattern) reads as "no reason",
// never as an error.
//
// Review-request events are exclusive: only the specifically named
// reviewer or named team is eligible. Nobody else receives a reason,
// not even the subject's author.
func ResolveReasons(ev *event.Event, login string, teams []event.TeamRef) ReasonSet {
	if login == "" {
		return NewReasonSet()
	}

	if ev.Trigger == event.TriggerReviewRequested || ev.Trigger == event.TriggerReviewRequestRemoved {
		return resolveReviewRequest(ev, login, teams)
	}

	reasons := NewReasonSet()
	subject := &ev.Subject

	if strings.EqualFold(subject.Author.Login, login) {
		reasons[ReasonAuthor] = struct{}{}
	}

	if subject.IsPullRequest() {
		for _, r := range subject.RequestedReviewers {
			if strings.EqualFold(r.Login, login) {
				reasons[ReasonReviewer] = struct{}{}
				break
			}
		}
		for _, t := range subject.RequestedTeams {
			if teamsContain(teams, t) {
				reasons[ReasonTeamReviewer] = struct{}{}
				break
			}
		}
	}

	for _, a := range subject.Assignees {
		if strings.EqualFold(a.Login, login) {
			reasons[ReasonAssigned] = struct{}{}
		}
		if assigneeIsUserTeam(a.Login, teams) {
			reasons[ReasonTeamAssigned] = struct{}{}
		}
	}

	text := ev.FreeText()
	if mentionsLogin(text, login) {
		reasons[ReasonMentioned] = struct{}{}
	}
	for _, t := range teams {
		if mentionsTeam(text, t) {
			reasons[ReasonTeamMentioned] = struct{}{}
			break
		}
	}

	return reasons
}

// resolveReviewRequest applies the review-request exclusivity rule: the
// result is a singleton or empty, never accumulated.
func resolveReviewRequest(ev *event.Event, login string, teams []event.TeamRef) ReasonSet {
	if ev.RequestedReviewer != "" && strings.EqualFold(ev.RequestedReviewer, login) {
		return NewReasonSet(ReasonReviewer)
	}
	if ev.RequestedTeam != nil && teamsContain(teams, *ev.RequestedTeam) {
		return NewReasonSet(ReasonTeamReviewer)
	}
	return NewReasonSet()
}

func teamsContain(teams []event.TeamRef, target event.TeamRef) bool {
	for _, t := range teams {
		if strings.EqualFold(t.Organization, target.Organization) && strings.EqualFold(t.Slug, target.Slug) {
			return true
		}
	}
	return false
}

// assigneeIsUserTeam reports whether an assignee entry names one of the
// user's teams ("org/slug" form, as platforms that allow team
// assignment emit it).
func assigneeIsUserTeam(assigneeLogin string, teams []event.TeamRef) bool {
	for _, t := range teams {
		if strings.EqualFold(assigneeLogin, t.String()) {
			return true
		}
	}
	return false
}

// mentionsLogin reports whether text contains "@login" as a whole
// token, case-insensitively. The trailing guard prevents @johndoe from
// matching @johndoesthings, and the "/" exclusion keeps team mentions
// from reading as a mention of the organization account.
func mentionsLogin(text, login string) bool {
	pattern := `(?i)(?:^|[^0-9a-z_/-])@` + regexp.QuoteMeta(login) + `(?:$|[^0-9a-z_/-])`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// mentionsTeam reports whether text contains "@org/slug" as a whole
// token, case-insensitively.
func mentionsTeam(text string, team event.TeamRef) bool {
	pattern := `(?i)(?:^|[^0-9a-z_/-])@` + regexp.QuoteMeta(team.Organization) +
		`/` + regexp.QuoteMeta(team.Slug) + `(?:$|[^0-9a-z_-])`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
