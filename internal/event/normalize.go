package event

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"

	"github.com/gitpulse/gitpulse/internal/log"
)

// ErrUnsupportedAction marks webhook actions that never produce a
// notification (synchronize, labeled, edited, ...). Callers drop these
// events rather than treating them as failures.
var ErrUnsupportedAction = errors.New("unsupported event action")

// SubjectFetcher resolves the full pull request object behind an issue
// stub. Used only when an issue-comment event targets a pull request.
type SubjectFetcher interface {
	PullRequest(ctx context.Context, owner, repo string, number int) (*Subject, error)
}

// Normalize converts a raw go-github webhook payload into an Event.
// The fetcher may be nil; issue comments on pull requests then degrade
// to the issue stub (reduced reviewer and team visibility).
func Normalize(ctx context.Context, payload any, fetcher SubjectFetcher) (*Event, error) {
	switch ev := payload.(type) {
	case *github.PullRequestEvent:
		return NormalizePullRequest(ev)
	case *github.IssuesEvent:
		return NormalizeIssues(ev)
	case *github.IssueCommentEvent:
		return NormalizeIssueComment(ctx, ev, fetcher)
	case *github.PullRequestReviewEvent:
		return NormalizeReview(ev)
	case *github.PullRequestReviewCommentEvent:
		return NormalizeReviewComment(ev)
	case *github.CheckRunEvent:
		return NormalizeCheckRun(ev)
	default:
		return nil, fmt.Errorf("unsupported event payload type %T", payload)
	}
}

// NormalizePullRequest builds an Event from a pull_request webhook.
func NormalizePullRequest(ev *github.PullRequestEvent) (*Event, error) {
	pr := ev.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull_request event has no pull request")
	}

	action := ev.GetAction()
	var trigger Trigger
	switch action {
	case "opened":
		trigger = TriggerOpened
	case "reopened":
		trigger = TriggerReopened
	case "closed":
		if pr.GetMerged() {
			trigger = TriggerMerged
		} else {
			trigger = TriggerClosed
		}
	case "assigned":
		trigger = TriggerAssigned
	case "unassigned":
		trigger = TriggerUnassigned
	case "review_requested":
		trigger = TriggerReviewRequested
	case "review_request_removed":
		trigger = TriggerReviewRequestRemoved
	default:
		return nil, fmt.Errorf("pull_request action %q: %w", action, ErrUnsupportedAction)
	}

	e := &Event{
		Kind:    KindPullRequest,
		Trigger: trigger,
		Action:  action,
		Repo:    repositoryOf(ev.GetRepo()),
		Sender:  accountOf(ev.GetSender()),
		Subject: *SubjectFromPullRequest(pr),
	}

	if trigger == TriggerReviewRequested || trigger == TriggerReviewRequestRemoved {
		if r := ev.GetRequestedReviewer(); r != nil {
			e.RequestedReviewer = r.GetLogin()
		}
		if t := ev.GetRequestedTeam(); t != nil {
			ref := teamOf(t, ownerLogin(ev.GetRepo()))
			e.RequestedTeam = &ref
		}
	}

	return e, nil
}

// NormalizeIssues builds an Event from an issues webhook.
func NormalizeIssues(ev *github.IssuesEvent) (*Event, error) {
	issue := ev.GetIssue()
	if issue == nil {
		return nil, fmt.Errorf("issues event has no issue")
	}

	action := ev.GetAction()
	var trigger Trigger
	switch action {
	case "opened":
		trigger = TriggerOpened
	case "reopened":
		trigger = TriggerReopened
	case "closed":
		trigger = TriggerClosed
	case "assigned":
		trigger = TriggerAssigned
	case "unassigned":
		trigger = TriggerUnassigned
	default:
		return nil, fmt.Errorf("issues action %q: %w", action, ErrUnsupportedAction)
	}

	return &Event{
		Kind:    KindIssue,
		Trigger: trigger,
		Action:  action,
		Repo:    repositoryOf(ev.GetRepo()),
		Sender:  accountOf(ev.GetSender()),
		Subject: *subjectOfIssue(issue),
	}, nil
}

// NormalizeIssueComment builds an Event from an issue_comment webhook.
// When the commented issue is actually a pull request, the subject is
// resolved to the full pull request object so reviewer and team fields
// are visible; resolution failure degrades to the issue stub.
func NormalizeIssueComment(ctx context.Context, ev *github.IssueCommentEvent, fetcher SubjectFetcher) (*Event, error) {
	issue := ev.GetIssue()
	if issue == nil {
		return nil, fmt.Errorf("issue_comment event has no issue")
	}
	if action := ev.GetAction(); action != "created" {
		return nil, fmt.Errorf("issue_comment action %q: %w", action, ErrUnsupportedAction)
	}

	repo := repositoryOf(ev.GetRepo())
	subject := subjectOfIssue(issue)
	kind := KindIssueComment

	if issueTargetsPullRequest(issue) {
		subject.Kind = SubjectPullRequest
		if full := fetchFullPullRequest(ctx, fetcher, repo.FullName, issue.GetNumber()); full != nil {
			subject = full
		}
	}

	e := &Event{
		Kind:    kind,
		Trigger: TriggerCommented,
		Action:  ev.GetAction(),
		Repo:    repo,
		Sender:  accountOf(ev.GetSender()),
		Subject: *subject,
	}
	if c := ev.GetComment(); c != nil {
		e.Comment = &Comment{
			Author: accountOf(c.GetUser()),
			Body:   c.GetBody(),
		}
	}
	return e, nil
}

// NormalizeReview builds an Event from a pull_request_review webhook.
func NormalizeReview(ev *github.PullRequestReviewEvent) (*Event, error) {
	pr := ev.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull_request_review event has no pull request")
	}
	if action := ev.GetAction(); action != "submitted" {
		return nil, fmt.Errorf("pull_request_review action %q: %w", action, ErrUnsupportedAction)
	}

	e := &Event{
		Kind:    KindReview,
		Trigger: TriggerReviewed,
		Action:  ev.GetAction(),
		Repo:    repositoryOf(ev.GetRepo()),
		Sender:  accountOf(ev.GetSender()),
		Subject: *SubjectFromPullRequest(pr),
	}
	if r := ev.GetReview(); r != nil {
		e.Review = &Review{
			Author: accountOf(r.GetUser()),
			Body:   r.GetBody(),
			State:  r.GetState(),
		}
	}
	return e, nil
}

// NormalizeReviewComment builds an Event from a pull_request_review_comment webhook.
func NormalizeReviewComment(ev *github.PullRequestReviewCommentEvent) (*Event, error) {
	pr := ev.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull_request_review_comment event has no pull request")
	}
	if action := ev.GetAction(); action != "created" {
		return nil, fmt.Errorf("pull_request_review_comment action %q: %w", action, ErrUnsupportedAction)
	}

	e := &Event{
		Kind:    KindReviewComment,
		Trigger: TriggerCommented,
		Action:  ev.GetAction(),
		Repo:    repositoryOf(ev.GetRepo()),
		Sender:  accountOf(ev.GetSender()),
		Subject: *SubjectFromPullRequest(pr),
	}
	if c := ev.GetComment(); c != nil {
		e.Comment = &Comment{
			Author: accountOf(c.GetUser()),
			Body:   c.GetBody(),
		}
	}
	return e, nil
}

// NormalizeCheckRun builds an Event from a completed check_run webhook
// attached to a pull request.
func NormalizeCheckRun(ev *github.CheckRunEvent) (*Event, error) {
	run := ev.GetCheckRun()
	if run == nil {
		return nil, fmt.Errorf("check_run event has no check run")
	}
	if action := ev.GetAction(); action != "completed" {
		return nil, fmt.Errorf("check_run action %q: %w", action, ErrUnsupportedAction)
	}

	var trigger Trigger
	switch conclusion := run.GetConclusion(); conclusion {
	case "success":
		trigger = TriggerCheckSucceeded
	case "failure", "timed_out":
		trigger = TriggerCheckFailed
	default:
		return nil, fmt.Errorf("check_run conclusion %q: %w", conclusion, ErrUnsupportedAction)
	}

	if len(run.PullRequests) == 0 {
		return nil, fmt.Errorf("check_run is not attached to a pull request: %w", ErrUnsupportedAction)
	}

	return &Event{
		Kind:    KindPullRequest,
		Trigger: trigger,
		Action:  ev.GetAction(),
		Repo:    repositoryOf(ev.GetRepo()),
		Sender:  accountOf(ev.GetSender()),
		Subject: *SubjectFromPullRequest(run.PullRequests[0]),
	}, nil
}

// issueTargetsPullRequest reports whether an issue stub actually refers
// to a pull request: the API marker is authoritative, the URL path is a
// fallback for payloads that omit it.
func issueTargetsPullRequest(issue *github.Issue) bool {
	if issue.IsPullRequest() {
		return true
	}
	return strings.Contains(issue.GetHTMLURL(), "/pull/")
}

// fetchFullPullRequest resolves the complete pull request behind an
// issue stub. Returns nil on any failure; the caller keeps the stub.
func fetchFullPullRequest(ctx context.Context, fetcher SubjectFetcher, repoFullName string, number int) *Subject {
	if fetcher == nil {
		return nil
	}
	owner, name, ok := strings.Cut(repoFullName, "/")
	if !ok {
		log.Warn("cannot parse repository full name", "repo", repoFullName)
		return nil
	}
	subject, err := fetcher.PullRequest(ctx, owner, name, number)
	if err != nil {
		log.Warn("full pull request fetch failed, using issue stub",
			"repo", repoFullName, "number", number, "error", err)
		return nil
	}
	return subject
}

// SubjectFromPullRequest converts a full pull request object into a
// Subject. Requested teams inherit the base repository's owner as their
// organization when the team object does not carry one.
func SubjectFromPullRequest(pr *github.PullRequest) *Subject {
	org := ownerLogin(pr.GetBase().GetRepo())
	s := &Subject{
		Kind:     SubjectPullRequest,
		Number:   pr.GetNumber(),
		Title:    pr.GetTitle(),
		Body:     pr.GetBody(),
		Author:   accountOf(pr.GetUser()),
		IsDraft:  pr.GetDraft(),
		IsMerged: pr.GetMerged(),
		URL:      pr.GetHTMLURL(),
	}
	for _, a := range pr.Assignees {
		s.Assignees = append(s.Assignees, accountOf(a))
	}
	for _, r := range pr.RequestedReviewers {
		s.RequestedReviewers = append(s.RequestedReviewers, accountOf(r))
	}
	for _, t := range pr.RequestedTeams {
		s.RequestedTeams = append(s.RequestedTeams, teamOf(t, org))
	}
	for _, l := range pr.Labels {
		s.Labels = append(s.Labels, l.GetName())
	}
	return s
}

func subjectOfIssue(issue *github.Issue) *Subject {
	s := &Subject{
		Kind:   SubjectIssue,
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		Author: accountOf(issue.GetUser()),
		URL:    issue.GetHTMLURL(),
	}
	for _, a := range issue.Assignees {
		s.Assignees = append(s.Assignees, accountOf(a))
	}
	for _, l := range issue.Labels {
		s.Labels = append(s.Labels, l.GetName())
	}
	return s
}

func accountOf(u *github.User) Account {
	if u == nil {
		return Account{}
	}
	return Account{
		ID:    u.GetID(),
		Login: u.GetLogin(),
		Bot:   u.GetType() == "Bot",
	}
}

// teamOf converts a payload team. Webhook payloads omit the
// organization object on requested teams, so an absent organization
// falls back to fallbackOrg (the repository owner).
func teamOf(t *github.Team, fallbackOrg string) TeamRef {
	org := t.GetOrganization().GetLogin()
	if org == "" {
		org = fallbackOrg
	}
	return TeamRef{
		Organization: org,
		Slug:         t.GetSlug(),
	}
}

// ownerLogin extracts the repository owner's login, falling back to the
// owner half of full_name when the owner object is absent.
func ownerLogin(r *github.Repository) string {
	if login := r.GetOwner().GetLogin(); login != "" {
		return login
	}
	owner, _, _ := strings.Cut(r.GetFullName(), "/")
	return owner
}

func repositoryOf(r *github.Repository) Repository {
	if r == nil {
		return Repository{}
	}
	return Repository{
		ID:       strconv.FormatInt(r.GetID(), 10),
		FullName: r.GetFullName(),
	}
}
