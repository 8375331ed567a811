// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProductName is the expected base name of the installed binary. The
// eligibility guard refuses to finalize an executable that does not carry
// this name, so a foreign binary linked against this package cannot be
// clobbered by a stray ".new" file.
const ProductName = "pinion"

var (
	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

// ExecPaths is the executable identity plus every sibling path the
// finalization protocol touches. Executable is canonical (absolute,
// symlink-resolved) and all other paths are derived from it by suffixing,
// which keeps every file on the same filesystem as the binary — a
// precondition for the atomic rename and for hard-link backups.
type ExecPaths struct {
	Executable string
}

// Candidate is the staged binary an external updater placed for promotion.
func (p ExecPaths) Candidate() string { return p.Executable + ".new" }

// Lock is the cross-process mutual-exclusion record for this executable.
func (p ExecPaths) Lock() string { return p.Executable + ".update.lock" }

// Backup is the rollback copy created by the given process immediately
// before the swap.
func (p ExecPaths) Backup(pid int) string {
	return fmt.Sprintf("%s.bak.%d", p.Executable, pid)
}

// Backups lists the backup siblings currently on disk for this
// executable, regardless of which process created them.
func (p ExecPaths) Backups() ([]string, error) {
	return filepath.Glob(p.Executable + ".bak.*")
}

// ResolveExecPaths determines the canonical path of the currently running
// binary. Resolved once per invocation; callers must not re-resolve after
// the swap, since the path then points at different bytes.
func ResolveExecPaths() (ExecPaths, error) {
	exe, err := osExecutable()
	if err != nil {
		return ExecPaths{}, fmt.Errorf("determining executable path: %w", err)
	}

	resolved, err := evalSymlinks(exe)
	if err != nil {
		return ExecPaths{}, fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}

	return ExecPaths{Executable: resolved}, nil
}
