// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"os"
	"time"
)

// defaultRetention is how long crash-recovery backups are kept. Anything
// older than this predates any possibly in-flight finalize attempt, which
// is what makes sweeping safe without holding the lock.
const defaultRetention = 24 * time.Hour

// sweepBackups garbage-collects backup siblings left behind by crashed or
// killed finalize attempts. It runs only after the lock is released,
// excludes the backup the current attempt created (keep), and tolerates
// concurrent deletion by other invocations.
func (f *Finalizer) sweepBackups(paths ExecPaths, keep string) {
	matches, err := paths.Backups()
	if err != nil {
		return
	}

	removed := 0
	for _, backup := range matches {
		if backup == keep {
			continue
		}
		info, statErr := os.Stat(backup)
		if statErr != nil {
			continue
		}
		if f.clock.Since(info.ModTime()) <= f.retention {
			continue
		}
		if rmErr := os.Remove(backup); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			f.logger.Debug("could not remove expired backup", "path", backup, "error", rmErr)
			continue
		}
		removed++
	}

	if removed > 0 {
		f.logger.Debug("swept expired backups", "count", removed)
	}
}
