// SPDX-License-Identifier: MPL-2.0

//go:build unix && !darwin

package selfupdate

// clearQuarantine is a no-op outside macOS; no other supported platform
// marks downloaded files as untrusted in a way that blocks execution.
func clearQuarantine(string) {}
