package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/gitpulse/gitpulse/internal/engine"
)

// TableFormatter formats decisions for terminal display
type TableFormatter struct{}

// Format outputs the decision as a terminal table
func (f *TableFormatter) Format(d *engine.Decision, w io.Writer) error {
	verdict := color.RedString("SUPPRESS")
	if d.ShouldNotify {
		verdict = color.GreenString("NOTIFY")
	}
	fmt.Fprintf(w, "Decision: %s (%s)\n", verdict, colorReason(d.Reason))

	if d.Primary != nil {
		p := d.Primary.Profile
		fmt.Fprintf(w, "Primary:  %s (priority %d)\n", p.Name, p.Priority)
	}

	if len(d.Matches) == 0 {
		return nil
	}

	// Column widths
	const (
		colProfile  = 24
		colPriority = 8
		colReason   = 18
	)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %s\n",
		colProfile, "Profile",
		colPriority, "Priority",
		colReason, "Reason",
		"Detail")
	fmt.Fprintln(w, strings.Repeat("-", colProfile+colPriority+colReason+16))

	for _, m := range d.Matches {
		fmt.Fprintf(w, "%-*s  %-*d  %-*s  %s\n",
			colProfile, truncate(m.Profile.Name, colProfile),
			colPriority, m.Profile.Priority,
			colReason, m.Reason,
			matchDetail(m))
	}

	return nil
}

// matchDetail summarizes what the profile matched on.
func matchDetail(m engine.ProfileMatch) string {
	if len(m.MatchedKeywords) > 0 {
		return "keywords: " + strings.Join(m.MatchedKeywords, ", ")
	}
	if len(m.Context.WatchingReasons) > 0 {
		parts := make([]string, len(m.Context.WatchingReasons))
		for i, r := range m.Context.WatchingReasons {
			parts[i] = string(r)
		}
		return strings.Join(parts, ", ")
	}
	return string(m.Context.Trigger)
}

func colorReason(reason string) string {
	switch reason {
	case engine.MatchReasonKeyword:
		return color.MagentaString(reason)
	case engine.MatchReasonMentioned:
		return color.YellowString(reason)
	case engine.DecisionReasonNoMatch, engine.DecisionReasonNoProfiles:
		return color.WhiteString(reason)
	default:
		return color.CyanString(reason)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
