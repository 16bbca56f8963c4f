package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/log"
)

// PostgresStore reads notification profiles from the profile service's
// database. The profile rows are written by the management API; this
// store is read-only.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a profile store to the given DSN.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect profile store: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const enabledProfilesQuery = `
SELECT id, user_id, name, priority, created_at,
       scope_type, scope_org, scope_team,
       filter_type, filter_repo_ids,
       preferences, keywords, keyword_matching_enabled
FROM notification_profiles
WHERE user_id = $1 AND enabled
ORDER BY priority DESC, created_at DESC`

// EnabledProfiles returns the user's enabled profiles in precedence
// order. Rows that cannot be decoded are skipped with a warning so one
// corrupt profile does not take down every evaluation for the user.
func (s *PostgresStore) EnabledProfiles(ctx context.Context, userID string) ([]NotificationProfile, error) {
	rows, err := s.pool.Query(ctx, enabledProfilesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []NotificationProfile
	for rows.Next() {
		var (
			p         NotificationProfile
			scopeOrg  *string
			scopeTeam *string
			prefsJSON []byte
		)
		p.Enabled = true
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Priority, &p.CreatedAt,
			&p.ScopeType, &scopeOrg, &scopeTeam,
			&p.RepositoryFilter.Type, &p.RepositoryFilter.RepoIDs,
			&prefsJSON, &p.Keywords, &p.KeywordMatchingEnabled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		if scopeOrg != nil && scopeTeam != nil {
			p.ScopeTeam = &event.TeamRef{Organization: *scopeOrg, Slug: *scopeTeam}
		}
		if len(prefsJSON) > 0 {
			if err := json.Unmarshal(prefsJSON, &p.Preferences); err != nil {
				log.Warn("skipping profile with malformed preferences", "profile", p.ID, "error", err)
				continue
			}
		}
		if err := p.Validate(); err != nil {
			log.Warn("skipping invalid profile", "profile", p.ID, "error", err)
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profile rows: %w", err)
	}
	return out, nil
}
