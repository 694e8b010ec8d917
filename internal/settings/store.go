// Package settings persists the connection settings (server URL and API key)
// in the portal's key/value storage.
package settings

import (
	"context"
	"fmt"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/interfaces"
)

// Storage keys for the two persisted entries.
const (
	KeyServerURL = "mcp_server_url"
	KeyAPIKey    = "mcp_api_key"
)

// ConnectionSettings is what the user types into the connection bar.
type ConnectionSettings struct {
	ServerURL string `json:"server_url"`
	APIKey    string `json:"api_key,omitempty"`
}

// HasAPIKey reports whether a bearer token should be attached.
func (c ConnectionSettings) HasAPIKey() bool {
	return c.APIKey != ""
}

// Store loads, saves and clears ConnectionSettings.
type Store struct {
	kv         interfaces.KeyValueStorage
	defaultURL string
	logger     *common.Logger
}

// NewStore creates a settings store. defaultURL is reported when no server
// URL has been saved.
func NewStore(kv interfaces.KeyValueStorage, defaultURL string, logger *common.Logger) *Store {
	return &Store{kv: kv, defaultURL: defaultURL, logger: logger}
}

// Defaults returns the settings shown before anything is saved.
func (s *Store) Defaults() ConnectionSettings {
	return ConnectionSettings{ServerURL: s.defaultURL}
}

// Load returns the persisted settings, falling back to defaults per field.
func (s *Store) Load(ctx context.Context) (ConnectionSettings, error) {
	cs := s.Defaults()

	all, err := s.kv.GetAll(ctx)
	if err != nil {
		return cs, fmt.Errorf("failed to load connection settings: %w", err)
	}
	if url := all[KeyServerURL]; url != "" {
		cs.ServerURL = url
	}
	cs.APIKey = all[KeyAPIKey]

	return cs, nil
}

// Save persists the settings. An empty API key removes the entry.
func (s *Store) Save(ctx context.Context, cs ConnectionSettings) error {
	if err := s.kv.Set(ctx, KeyServerURL, cs.ServerURL); err != nil {
		return fmt.Errorf("failed to save server URL: %w", err)
	}
	if cs.APIKey != "" {
		if err := s.kv.Set(ctx, KeyAPIKey, cs.APIKey); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
	} else if err := s.kv.Delete(ctx, KeyAPIKey); err != nil {
		return fmt.Errorf("failed to remove API key: %w", err)
	}

	s.logger.Debug().Str("server_url", cs.ServerURL).Bool("api_key_set", cs.HasAPIKey()).Msg("connection settings saved")
	return nil
}

// Clear removes both persisted entries.
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range []string{KeyServerURL, KeyAPIKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	s.logger.Info().Msg("connection settings cleared")
	return nil
}
