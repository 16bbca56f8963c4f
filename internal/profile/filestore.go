package profile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gitpulse/gitpulse/internal/log"
)

// FileStore reads profiles from a YAML fixture file. It backs the CLI
// and tests; production deployments use the Postgres store.
type FileStore struct {
	profiles []NotificationProfile
}

// fixture is the on-disk shape of a profile fixture file.
type fixture struct {
	Profiles []NotificationProfile `yaml:"profiles"`
}

// LoadFileStore parses a profile fixture file. Profiles that fail
// validation are skipped with a warning rather than rejecting the
// whole file.
func LoadFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	s := &FileStore{}
	for _, p := range f.Profiles {
		if err := p.Validate(); err != nil {
			log.Warn("skipping invalid profile", "profile", p.ID, "error", err)
			continue
		}
		s.profiles = append(s.profiles, p)
	}
	return s, nil
}

// NewFileStore wraps an in-memory profile set (for tests).
func NewFileStore(profiles []NotificationProfile) *FileStore {
	return &FileStore{profiles: profiles}
}

// EnabledProfiles returns the user's enabled profiles in precedence
// order (priority desc, createdAt desc).
func (s *FileStore) EnabledProfiles(_ context.Context, userID string) ([]NotificationProfile, error) {
	var out []NotificationProfile
	for _, p := range s.profiles {
		if p.Enabled && (p.UserID == "" || p.UserID == userID) {
			out = append(out, p)
		}
	}
	SortByPrecedence(out)
	return out, nil
}
