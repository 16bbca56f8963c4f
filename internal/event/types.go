// Package event contains the normalized event model consumed by the
// decision engine. Raw webhook payloads are converted exactly once, at
// the normalization boundary, into a closed Event type; nothing past
// that boundary inspects loosely-typed payload fields.
package event

import "strings"

// Kind identifies the class of source-control event.
type Kind string

const (
	KindPullRequest   Kind = "pull_request"
	KindIssue         Kind = "issue"
	KindIssueComment  Kind = "issue_comment"
	KindReview        Kind = "review"
	KindReviewComment Kind = "review_comment"
)

// Trigger is the normalized action that may produce a notification.
type Trigger string

const (
	TriggerOpened               Trigger = "OPENED"
	TriggerReopened             Trigger = "REOPENED"
	TriggerClosed               Trigger = "CLOSED"
	TriggerMerged               Trigger = "MERGED"
	TriggerReviewed             Trigger = "REVIEWED"
	TriggerCommented            Trigger = "COMMENTED"
	TriggerAssigned             Trigger = "ASSIGNED"
	TriggerUnassigned           Trigger = "UNASSIGNED"
	TriggerReviewRequested      Trigger = "REVIEW_REQUESTED"
	TriggerReviewRequestRemoved Trigger = "REVIEW_REQUEST_REMOVED"
	TriggerCheckFailed          Trigger = "CHECK_FAILED"
	TriggerCheckSucceeded       Trigger = "CHECK_SUCCEEDED"
)

// AllTriggers is the single source of truth for valid trigger values.
var AllTriggers = []Trigger{
	TriggerOpened,
	TriggerReopened,
	TriggerClosed,
	TriggerMerged,
	TriggerReviewed,
	TriggerCommented,
	TriggerAssigned,
	TriggerUnassigned,
	TriggerReviewRequested,
	TriggerReviewRequestRemoved,
	TriggerCheckFailed,
	TriggerCheckSucceeded,
}

// SubjectKind distinguishes pull requests from issues.
type SubjectKind string

const (
	SubjectIssue       SubjectKind = "Issue"
	SubjectPullRequest SubjectKind = "PullRequest"
)

// Account is a platform user referenced by an event.
type Account struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Bot   bool   `json:"bot,omitempty"`
}

// TeamRef identifies a team by organization and slug.
type TeamRef struct {
	Organization string `json:"organization"`
	Slug         string `json:"slug"`
}

// String returns the canonical "org/slug" form.
func (t TeamRef) String() string {
	return t.Organization + "/" + t.Slug
}

// Repository identifies the repository an event occurred in.
// The ID is the platform's numeric identifier in decimal form, matching
// the string IDs stored in repository filters.
type Repository struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

// Comment is the triggering comment of a comment event.
type Comment struct {
	Author Account `json:"author"`
	Body   string  `json:"body"`
}

// Review is the triggering review of a review event.
type Review struct {
	Author Account `json:"author"`
	Body   string  `json:"body"`
	State  string  `json:"state,omitempty"`
}

// Subject is the pull request or issue an event pertains to.
type Subject struct {
	Kind               SubjectKind `json:"kind"`
	Number             int         `json:"number"`
	Title              string      `json:"title"`
	Body               string      `json:"body"`
	Author             Account     `json:"author"`
	Assignees          []Account   `json:"assignees,omitempty"`
	RequestedReviewers []Account   `json:"requestedReviewers,omitempty"`
	RequestedTeams     []TeamRef   `json:"requestedTeams,omitempty"`
	Labels             []string    `json:"labels,omitempty"`
	IsDraft            bool        `json:"isDraft,omitempty"`
	IsMerged           bool        `json:"isMerged,omitempty"`
	URL                string      `json:"url,omitempty"`
}

// IsPullRequest reports whether the subject is a pull request.
func (s *Subject) IsPullRequest() bool {
	return s.Kind == SubjectPullRequest
}

// Event is a normalized, immutable source-control event. Exactly one
// constructor per kind builds it; see normalize.go.
type Event struct {
	Kind    Kind       `json:"kind"`
	Trigger Trigger    `json:"trigger"`
	Action  string     `json:"action"`
	Repo    Repository `json:"repository"`
	Sender  Account    `json:"sender"`
	Subject Subject    `json:"subject"`
	Comment *Comment   `json:"comment,omitempty"`
	Review  *Review    `json:"review,omitempty"`

	// Set only for review-request actions: the specifically named
	// reviewer or team. Exactly one of the two is non-zero.
	RequestedReviewer string   `json:"requestedReviewer,omitempty"`
	RequestedTeam     *TeamRef `json:"requestedTeam,omitempty"`
}

// FreeText assembles the text handed to keyword and mention matching:
// subject title and body plus, for comment and review events, the
// triggering comment or review body, blank-line separated.
func (e *Event) FreeText() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(e.Subject.Title); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(e.Subject.Body); s != "" {
		parts = append(parts, s)
	}
	if e.Comment != nil {
		if s := strings.TrimSpace(e.Comment.Body); s != "" {
			parts = append(parts, s)
		}
	}
	if e.Review != nil {
		if s := strings.TrimSpace(e.Review.Body); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
