package output

import (
	"encoding/json"
	"io"

	"github.com/gitpulse/gitpulse/internal/engine"
)

// JSONFormatter formats decisions as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format outputs the decision as JSON
func (f *JSONFormatter) Format(d *engine.Decision, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(d)
}
