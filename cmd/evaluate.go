package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/config"
	"github.com/gitpulse/gitpulse/internal/audit"
	"github.com/gitpulse/gitpulse/internal/engine"
	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/github"
	"github.com/gitpulse/gitpulse/internal/keywords"
	"github.com/gitpulse/gitpulse/internal/log"
	"github.com/gitpulse/gitpulse/internal/output"
	"github.com/gitpulse/gitpulse/internal/profile"
)

// NewCmdEvaluate creates the evaluate command.
func NewCmdEvaluate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a webhook event against a user's notification profiles",
		Long: `Evaluate a GitHub webhook event against a user's notification profiles
and print the decision: whether to notify, which profile triggered, and why.

The event payload is the raw webhook JSON body; --type is the value of the
X-GitHub-Event header (pull_request, issues, issue_comment,
pull_request_review, pull_request_review_comment, check_run).

Profiles come from a YAML fixture file (--profiles) or from the profile
database (--dsn). With a GITHUB_TOKEN the evaluated user's identity and
team rosters are resolved live; without one, supply --user and --teams.`,
		Example: `  gitpulse evaluate -t pull_request -e payload.json -p profiles.yaml -u octocat
  cat payload.json | gitpulse evaluate -t issue_comment -e - -u octocat --teams acme/platform`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.EventType, "type", "t", "", "Webhook event type (X-GitHub-Event header value)")
	cmd.Flags().StringVarP(&opts.EventFile, "event", "e", "", "Path to the webhook payload JSON ('-' for stdin)")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "User ID to evaluate for")
	cmd.Flags().StringSliceVar(&opts.Teams, "teams", nil, "Team memberships as org/slug (used without a GitHub token)")
	cmd.Flags().StringVarP(&opts.ProfileFile, "profiles", "p", "", "Profile fixture file (YAML)")
	cmd.Flags().StringVar(&opts.PostgresDSN, "dsn", "", "Postgres DSN for the profile database")
	cmd.Flags().StringVar(&opts.RedisAddr, "redis", "", "Redis address for the team roster cache")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent profile evaluations")
	cmd.Flags().BoolVar(&opts.NoKeywords, "no-keywords", false, "Disable keyword matching")
	cmd.Flags().StringVar(&opts.DecisionLog, "log", "", "Decision log path (default: ~/.cache/gitpulse/decisions.jsonl)")

	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(opts, cfg)

	payload, err := readPayload(opts)
	if err != nil {
		return err
	}

	collab, err := buildCollaborators(opts, cfg)
	if err != nil {
		return err
	}

	ev, err := event.Normalize(ctx, payload, collab.fetcher)
	if err != nil {
		if errors.Is(err, event.ErrUnsupportedAction) {
			fmt.Println("Event action does not produce notifications; nothing to evaluate.")
			return nil
		}
		return fmt.Errorf("failed to normalize event: %w", err)
	}
	log.Info("evaluating event", "trigger", ev.Trigger, "repo", ev.Repo.FullName, "user", opts.User)

	profiles, closeProfiles, err := openProfileStore(ctx, opts)
	if err != nil {
		return err
	}
	defer closeProfiles()

	var engineOpts []engine.Option
	if opts.Workers > 0 {
		engineOpts = append(engineOpts, engine.WithConcurrency(opts.Workers))
	}
	if oracle := buildOracle(opts, cfg); oracle != nil {
		engineOpts = append(engineOpts, engine.WithOracle(oracle))
	}

	eng := engine.New(profiles, collab.identity, collab.rosters, engineOpts...)
	decision, err := eng.Evaluate(ctx, opts.User, ev)
	if err != nil {
		return err
	}

	recordDecision(opts, ev, decision)

	formatter := output.NewFormatter(output.Format(opts.Format))
	return formatter.Format(decision, os.Stdout)
}

// applyConfig fills unset options from the merged config file.
func applyConfig(opts *Options, cfg *config.Config) {
	if opts.Format == "" {
		opts.Format = cfg.DefaultFormat
	}
	if opts.ProfileFile == "" {
		opts.ProfileFile = cfg.ProfileFile
	}
	if opts.PostgresDSN == "" {
		opts.PostgresDSN = cfg.PostgresDSN
	}
	if opts.RedisAddr == "" {
		opts.RedisAddr = cfg.RedisAddr
	}
	if opts.DecisionLog == "" {
		opts.DecisionLog = cfg.DecisionLog
	}
}

// readPayload reads the raw webhook body and parses it into the typed
// go-github payload for the declared event type.
func readPayload(opts *Options) (any, error) {
	var data []byte
	var err error
	if opts.EventFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(opts.EventFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}

	payload, err := gogithub.ParseWebHook(opts.EventType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", opts.EventType, err)
	}
	return payload, nil
}

// collaborators bundles the engine's platform-facing dependencies.
type collaborators struct {
	identity engine.IdentityStore
	rosters  engine.TeamRosterResolver
	fetcher  event.SubjectFetcher
}

// buildCollaborators wires identity, roster, and subject resolution.
// With a GitHub token everything resolves live; without one, identity
// comes from flags and roster lookups fail closed.
func buildCollaborators(opts *Options, cfg *config.Config) (*collaborators, error) {
	if token := cfg.GetGitHubToken(); token != "" {
		client, err := github.NewClient(token)
		if err != nil {
			return nil, err
		}
		c := &collaborators{identity: client, rosters: client, fetcher: client}
		if opts.RedisAddr != "" {
			c.rosters = github.NewRosterCache(client, opts.RedisAddr, cfg.RosterCacheTTL())
		}
		return c, nil
	}

	log.Warn("no GITHUB_TOKEN set; using identity from flags, team-scoped profiles will not match")
	teams, err := parseTeams(opts.Teams)
	if err != nil {
		return nil, err
	}
	return &collaborators{
		identity: staticIdentity{login: opts.User, teams: teams},
		rosters:  offlineRosters{},
	}, nil
}

// openProfileStore opens the configured profile source. The returned
// close function is a no-op for the fixture store.
func openProfileStore(ctx context.Context, opts *Options) (engine.ProfileStore, func(), error) {
	if opts.PostgresDSN != "" {
		store, err := profile.NewPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to profile database: %w", err)
		}
		return store, store.Close, nil
	}

	if opts.ProfileFile == "" {
		return nil, nil, fmt.Errorf("no profile source configured; use --profiles or --dsn")
	}
	store, err := profile.LoadFileStore(opts.ProfileFile)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// buildOracle creates the keyword oracle when enabled and configured.
func buildOracle(opts *Options, cfg *config.Config) keywords.Oracle {
	if opts.NoKeywords || !cfg.KeywordMatchingEnabled() {
		return nil
	}
	oracle, err := keywords.NewClaudeOracle(cfg.GetOracleAPIKey())
	if err != nil {
		log.Warn("keyword oracle unavailable, continuing without keyword matching", "error", err)
		return nil
	}
	return oracle
}

// recordDecision appends the decision to the audit log. Recording is
// best-effort and never fails the evaluation.
func recordDecision(opts *Options, ev *event.Event, d *engine.Decision) {
	var store *audit.Store
	if opts.DecisionLog != "" {
		store = audit.NewStoreWithPath(opts.DecisionLog)
	} else {
		var err error
		store, err = audit.NewStore()
		if err != nil {
			log.Warn("decision log unavailable", "error", err)
			return
		}
	}
	store.DecisionEvaluated(opts.User, ev, d)
}

// parseTeams parses org/slug team references from flags.
func parseTeams(specs []string) ([]event.TeamRef, error) {
	teams := make([]event.TeamRef, 0, len(specs))
	for _, s := range specs {
		org, slug, ok := strings.Cut(s, "/")
		if !ok || org == "" || slug == "" {
			return nil, fmt.Errorf("invalid team %q: expected org/slug", s)
		}
		teams = append(teams, event.TeamRef{Organization: org, Slug: slug})
	}
	return teams, nil
}

// staticIdentity serves the flag-supplied identity for offline runs.
type staticIdentity struct {
	login string
	teams []event.TeamRef
}

func (s staticIdentity) User(_ context.Context, _ string) (engine.Identity, error) {
	return engine.Identity{Login: s.login, Teams: s.teams}, nil
}

// offlineRosters fails every roster lookup so team-scoped profiles fail
// closed when no GitHub client is available.
type offlineRosters struct{}

func (offlineRosters) MemberLogins(_ context.Context, org, slug string) ([]string, error) {
	return nil, fmt.Errorf("cannot resolve roster for %s/%s without a GitHub token", org, slug)
}
