package cmd

// Options holds the shared command-line options for the gitpulse CLI.
type Options struct {
	Format    string
	Verbosity int

	// Event input
	EventType string // X-GitHub-Event header value (pull_request, issues, ...)
	EventFile string // Path to the webhook payload JSON

	// Evaluation target
	User  string
	Teams []string // Team memberships as org/slug, used when offline

	// Profile sources
	ProfileFile string
	PostgresDSN string

	// Collaborators
	RedisAddr   string
	Workers     int
	NoKeywords  bool
	DecisionLog string

	// Decision log listing
	Limit int
}
