// Package engine implements the notification decision pipeline: given
// a normalized event and a user's profiles, decide whether to notify,
// which profile triggered, and why.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/keywords"
	"github.com/gitpulse/gitpulse/internal/log"
	"github.com/gitpulse/gitpulse/internal/profile"
)

// defaultConcurrency bounds per-profile evaluation fan-out. Profile
// checks only suspend on collaborator calls, so a small pool suffices.
const defaultConcurrency = 4

// Engine evaluates events against notification profiles. It holds no
// mutable state; a single Engine is safe for concurrent use.
type Engine struct {
	profiles ProfileStore
	identity IdentityStore
	rosters  TeamRosterResolver
	oracle   keywords.Oracle
	instr    Instrumenter
	workers  int
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithOracle attaches a keyword matching oracle. Without one, keyword
// matching is skipped (configuration degradation, not an error).
func WithOracle(o keywords.Oracle) Option {
	return func(e *Engine) { e.oracle = o }
}

// WithInstrumenter attaches a decision sink.
func WithInstrumenter(i Instrumenter) Option {
	return func(e *Engine) { e.instr = i }
}

// WithConcurrency sets the per-profile evaluation fan-out.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates a decision engine from its collaborators.
func New(profiles ProfileStore, identity IdentityStore, rosters TeamRosterResolver, opts ...Option) *Engine {
	e := &Engine{
		profiles: profiles,
		identity: identity,
		rosters:  rosters,
		workers:  defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the full decision pipeline for one (user, event) pair.
// It always returns a Decision for business-data outcomes; an error is
// returned only when the user or their profile set cannot be resolved,
// which the caller treats as fatal for this evaluation alone.
func (e *Engine) Evaluate(ctx context.Context, userID string, ev *event.Event) (*Decision, error) {
	id, err := e.identity.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}

	profiles, err := e.profiles.EnabledProfiles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles for user %s: %w", userID, err)
	}
	if len(profiles) == 0 {
		return e.finish(userID, ev, &Decision{Reason: DecisionReasonNoProfiles}), nil
	}

	// The store contract is precedence order already; re-sorting here
	// keeps the invariant local so concurrency below can never reorder
	// the final match list.
	profile.SortByPrecedence(profiles)

	results := make([]*ProfileMatch, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range profiles {
		g.Go(func() error {
			results[i] = e.evaluateProfile(gctx, id, &profiles[i], ev)
			return nil
		})
	}
	// Profile evaluation never surfaces errors; containment happens
	// inside evaluateProfile.
	_ = g.Wait()

	d := &Decision{Reason: DecisionReasonNoMatch}
	for _, m := range results {
		if m != nil {
			d.Matches = append(d.Matches, *m)
		}
	}
	if len(d.Matches) > 0 {
		d.ShouldNotify = true
		d.Primary = &d.Matches[0]
		d.Reason = d.Primary.Reason
	}
	return e.finish(userID, ev, d), nil
}

// evaluateProfile runs one profile through scope, keyword, reason and
// preference stages. It returns nil for a non-match. Any panic or
// stage failure is contained here: logged with reason ERROR, treated
// as a non-match, and never allowed to disturb sibling profiles.
func (e *Engine) evaluateProfile(ctx context.Context, id Identity, p *profile.NotificationProfile, ev *event.Event) (m *ProfileMatch) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("profile evaluation failed", "profile", p.ID, "reason", "ERROR", "panic", r)
			m = nil
		}
	}()

	if !inScope(ctx, e.rosters, p, ev) {
		log.Debug("profile out of scope", "profile", p.ID)
		return nil
	}

	// Keyword interest overrides ordinary watch and preference gating,
	// including the mute rules: a keyword match short-circuits before
	// the preference evaluator runs.
	if match := e.matchKeywords(ctx, p, ev); match != nil {
		return match
	}

	reasons := ResolveReasons(ev, id.Login, id.Teams)
	if !shouldNotify(p.Preferences, ev, reasons, id.Login) {
		return nil
	}

	return &ProfileMatch{
		Profile: *p,
		Reason:  matchReason(reasons),
		Context: MatchContext{
			Trigger:         ev.Trigger,
			SubjectKind:     ev.Subject.Kind,
			WatchingReasons: reasons.Sorted(),
		},
	}
}

// matchKeywords runs the keyword stage. A missing oracle or oracle
// failure degrades to "no match" and evaluation continues.
func (e *Engine) matchKeywords(ctx context.Context, p *profile.NotificationProfile, ev *event.Event) *ProfileMatch {
	if !p.KeywordMatchingEnabled || len(p.Keywords) == 0 {
		return nil
	}
	if e.oracle == nil {
		log.Debug("keyword matching enabled but no oracle configured", "profile", p.ID)
		return nil
	}

	result, err := e.oracle.Match(ctx, ev.FreeText(), p.Keywords)
	if err != nil {
		log.Warn("keyword oracle failed, continuing without keyword match",
			"profile", p.ID, "error", err)
		return nil
	}
	if result.Empty() {
		return nil
	}

	return &ProfileMatch{
		Profile:         *p,
		MatchedKeywords: result.Matched,
		MatchDetails:    result.Details,
		Reason:          MatchReasonKeyword,
		Context: MatchContext{
			Trigger:     ev.Trigger,
			SubjectKind: ev.Subject.Kind,
		},
	}
}

// finish hands the decision to the instrumenter, fire-and-forget.
func (e *Engine) finish(userID string, ev *event.Event, d *Decision) *Decision {
	if e.instr != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("instrumenter panicked", "panic", r)
				}
			}()
			e.instr.DecisionEvaluated(userID, ev, d)
		}()
	}
	return d
}
