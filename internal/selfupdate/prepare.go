// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// defaultPreflightTimeout bounds the trial run of the staged candidate.
// A candidate that cannot print its version within this window is broken.
const defaultPreflightTimeout = 5 * time.Second

// ErrPreflight indicates the staged candidate failed its trial run.
var ErrPreflight = errors.New("candidate preflight failed")

// prepareCandidate normalizes the staged candidate so that, once swapped
// in, it is indistinguishable from a binary the user installed: the full
// permission-bit set of the current executable (not merely the executable
// bit), best-effort matching ownership, and no downloaded-file quarantine
// marking. Only the still-inactive candidate is mutated; failures here are
// harmless to the installation.
func prepareCandidate(exePath, candPath string) error {
	info, err := os.Stat(exePath)
	if err != nil {
		return fmt.Errorf("reading executable permissions: %w", err)
	}
	if err := os.Chmod(candPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("copying permissions onto candidate: %w", err)
	}

	// Commonly fails without elevated privileges; the candidate already
	// passed the same-owner screening, so a failed chown changes nothing.
	copyOwnership(exePath, candPath)

	clearQuarantine(candPath)
	return nil
}

// preflight runs the candidate with a version query under a short timeout.
// The child's environment carries the skip flag so it cannot recursively
// enter its own finalizer. Success is a zero exit status within the
// timeout; any other outcome (non-zero exit, timeout, spawn error) aborts
// the finalize attempt before anything irreversible happens.
func preflight(ctx context.Context, candPath string, timeout time.Duration) (reported string, err error) {
	if timeout <= 0 {
		timeout = defaultPreflightTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, candPath, "--version")
	cmd.Env = append(os.Environ(), EnvSkipFinalize+"=1")

	out, runErr := cmd.Output()
	if runErr != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: timed out after %s", ErrPreflight, timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrPreflight, runErr)
	}

	return reportedVersion(string(out)), nil
}

// reportedVersion extracts the first valid semver token from the preflight
// output, normalized with a "v" prefix. Purely advisory: it feeds verbose
// diagnostics and is empty for outputs like "dev (built from source)".
func reportedVersion(output string) string {
	for _, field := range strings.Fields(output) {
		v := field
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			return v
		}
	}
	return ""
}
