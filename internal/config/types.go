// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config is the root configuration structure.
	Config struct {
		UI     UIConfig     `mapstructure:"ui"`
		Update UpdateConfig `mapstructure:"update"`
	}

	// UIConfig holds user-interface preferences.
	UIConfig struct {
		// Verbose enables diagnostic output, including the otherwise
		// silent self-update finalizer narration.
		Verbose bool `mapstructure:"verbose"`
	}

	// UpdateConfig tunes the self-update finalizer.
	UpdateConfig struct {
		// Disabled turns off update finalization entirely, the durable
		// counterpart of the PINION_SKIP_FINALIZE environment override.
		Disabled bool `mapstructure:"disabled"`

		// LockStaleMinutes overrides the update-lock staleness threshold.
		// Zero means the built-in default (10 minutes).
		LockStaleMinutes int `mapstructure:"lock_stale_minutes"`

		// RetentionHours overrides how long rollback backups are kept.
		// Zero means the built-in default (24 hours).
		RetentionHours int `mapstructure:"retention_hours"`
	}
)
