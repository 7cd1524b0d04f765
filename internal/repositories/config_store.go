package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/svbridge/internal/shared"
)

const (
	// LegacyConfigKey holds the organization-wide defaults used when no platform account is named.
	LegacyConfigKey = "short_video_integration_config"
	// AccountConfigPrefix prefixes per-account defaults.
	AccountConfigPrefix = "short_video_config_"
)

// ConfigKey returns the sets name for an account's defaults, or the legacy key when accountID is blank.
func ConfigKey(accountID string) string {
	if id := strings.TrimSpace(accountID); id != "" {
		return AccountConfigPrefix + id
	}
	return LegacyConfigKey
}

// ConfigStore reads and writes short-video defaults.
type ConfigStore struct {
	sets   *SetsRepository
	logger *log.Logger
}

// NewConfigStore creates a [ConfigStore] over sets.
func NewConfigStore(sets *SetsRepository, logger *log.Logger) *ConfigStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ConfigStore{sets: sets, logger: logger}
}

// Load returns the stored defaults for accountID (legacy defaults when blank).
//
// Missing rows, empty content and content that is not a JSON object all yield an empty map.
func (s *ConfigStore) Load(ctx context.Context, organizationID, accountID string) (map[string]any, error) {
	key := ConfigKey(accountID)
	content, ok, err := s.sets.Get(ctx, organizationID, key)
	if err != nil {
		return nil, err
	}

	cfg := map[string]any{}
	if !ok || strings.TrimSpace(content) == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(content), &cfg); err != nil || cfg == nil {
		s.logger.Warn("ignoring malformed stored config", "organization", organizationID, "key", key, "error", err)
		return map[string]any{}, nil
	}
	return cfg, nil
}

// Save overwrites the defaults for accountID.
func (s *ConfigStore) Save(ctx context.Context, organizationID, accountID string, cfg map[string]any) error {
	if cfg == nil {
		cfg = map[string]any{}
	}
	content, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return s.sets.Save(ctx, organizationID, ConfigKey(accountID), string(content))
}

// Delete drops the stored config of a platform account. The legacy defaults are never deleted.
func (s *ConfigStore) Delete(ctx context.Context, organizationID, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: platform account id", shared.ErrMissingArgument)
	}
	return s.sets.Delete(ctx, organizationID, ConfigKey(accountID))
}
