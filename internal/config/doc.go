// SPDX-License-Identifier: MPL-2.0

// Package config loads pinion's configuration from a TOML file in the
// platform config directory and from PINION_* environment variables.
// Precedence is flag > environment > file > default; flags are applied by
// the cmd layer after Load.
package config
