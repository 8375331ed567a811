// SPDX-License-Identifier: MPL-2.0

//go:build windows

package selfupdate

import (
	"os"
	"syscall"
)

// Windows locks the file backing a running executable, so the rename-based
// finalization protocol cannot run there. The guard screens the platform
// out before any other check; the stubs below exist only to keep the
// package compiling.

func platformSupported() bool { return false }

func checkDirectoryTrust(string) string { return reasonUnsupportedPlatform }

func checkCandidateProvenance(string, string) string { return reasonUnsupportedPlatform }

func copyOwnership(string, string) {}

func clearQuarantine(string) {}

func terminationSignal(*os.ProcessState) (syscall.Signal, bool) { return 0, false }

//nolint:gochecknoglobals // Mirrors the unix test seam.
var raiseSignal = func(syscall.Signal) error { return nil }
