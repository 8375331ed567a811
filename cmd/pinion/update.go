// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pinion-cli/internal/selfupdate"
)

// updateCmd groups read-only inspection of self-update state. The
// finalization itself never runs from here; it runs automatically at the
// start of every invocation.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Inspect self-update state",
}

var updateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending update, lock, and backup state for this binary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		if err := runUpdateStatus(cmd.OutOrStdout()); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		return nil
	},
}

func init() {
	updateCmd.AddCommand(updateStatusCmd)
}

// runUpdateStatus reports the on-disk update state next to the running
// executable: staged candidate, update lock, and rollback backups. Purely
// read-only so it is safe to run concurrently with a finalize attempt in
// another process.
func runUpdateStatus(out io.Writer) error {
	paths, err := selfupdate.ResolveExecPaths()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}

	fmt.Fprintf(out, "Executable: %s\n", paths.Executable)

	if info, statErr := os.Lstat(paths.Candidate()); statErr == nil {
		fmt.Fprintf(out, "Staged candidate: %s (%d bytes, staged %s)\n",
			paths.Candidate(), info.Size(), info.ModTime().Format(time.RFC3339))
	} else {
		fmt.Fprintln(out, "Staged candidate: none")
	}

	rec, lockErr := selfupdate.ReadLockRecord(paths.Lock())
	switch {
	case lockErr == nil:
		fmt.Fprintf(out, "Update lock: held by pid %d on %s since %s\n",
			rec.PID, rec.Hostname, rec.AcquiredAt.Format(time.RFC3339))
	case errors.Is(lockErr, os.ErrNotExist):
		fmt.Fprintln(out, "Update lock: not held")
	default:
		fmt.Fprintf(out, "Update lock: present but unreadable (%v)\n", lockErr)
	}

	backups, _ := paths.Backups()
	if len(backups) == 0 {
		fmt.Fprintln(out, "Backups: none")
		return nil
	}
	fmt.Fprintf(out, "Backups: %d\n", len(backups))
	for _, b := range backups {
		if info, statErr := os.Stat(b); statErr == nil {
			fmt.Fprintf(out, "  %s (%s)\n", b, info.ModTime().Format(time.RFC3339))
		} else {
			fmt.Fprintf(out, "  %s\n", b)
		}
	}
	return nil
}
