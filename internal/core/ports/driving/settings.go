package driving

import "github.com/custodia-labs/sercha-integrity/internal/core/domain"

// SettingsService manages runtime configuration.
type SettingsService interface {
	// Get returns the current settings with defaults applied.
	Get() (*domain.Settings, error)

	// Set stores a single configuration value by dotted key.
	Set(key, value string) error

	// Reload re-reads configuration from storage.
	Reload() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
