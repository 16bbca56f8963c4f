package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/gitpulse/gitpulse/internal/engine"
)

// MarkdownFormatter formats decisions as Markdown, for pasting into
// issues or chat.
type MarkdownFormatter struct{}

// Format outputs the decision as Markdown
func (f *MarkdownFormatter) Format(d *engine.Decision, w io.Writer) error {
	verdict := "suppress"
	if d.ShouldNotify {
		verdict = "notify"
	}
	fmt.Fprintf(w, "## Decision: %s\n\n", verdict)
	fmt.Fprintf(w, "**Reason:** `%s`\n\n", d.Reason)

	if len(d.Matches) == 0 {
		return nil
	}

	fmt.Fprintln(w, "| Profile | Priority | Reason | Detail |")
	fmt.Fprintln(w, "|---------|----------|--------|--------|")
	for _, m := range d.Matches {
		fmt.Fprintf(w, "| %s | %d | %s | %s |\n",
			strings.ReplaceAll(m.Profile.Name, "|", "\\|"),
			m.Profile.Priority,
			m.Reason,
			matchDetail(m))
	}

	return nil
}
