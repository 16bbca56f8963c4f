// Package keywords delegates free-text keyword matching to an external
// semantic matching oracle. The engine treats the oracle as opaque and
// possibly unavailable: any failure reads as "no match".
package keywords

import "context"

// Result is the oracle's verdict: the subset of requested keywords that
// match the content, with a short per-keyword rationale.
type Result struct {
	Matched []string          `json:"matched"`
	Details map[string]string `json:"details,omitempty"`
}

// Empty reports whether the oracle found nothing.
func (r Result) Empty() bool {
	return len(r.Matched) == 0
}

// Oracle performs semantic keyword matching on free text.
type Oracle interface {
	Match(ctx context.Context, text string, keywords []string) (Result, error)
}
