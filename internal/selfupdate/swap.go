// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// BackupCause classifies why creating the rollback backup failed. Each
// cause is reported distinctly; all of them abort the swap with the
// original binary fully intact and no partial backup left behind.
type BackupCause int

const (
	BackupOther BackupCause = iota
	BackupNoSpace
	BackupPermission
)

// String returns a short name for the cause.
func (c BackupCause) String() string {
	switch c {
	case BackupNoSpace:
		return "out of space"
	case BackupPermission:
		return "permission denied"
	}
	return "other"
}

// BackupError wraps a backup-creation failure with its classified cause.
type BackupError struct {
	Cause BackupCause
	Err   error
}

// Error returns a human-readable description of the backup failure.
func (e *BackupError) Error() string {
	return fmt.Sprintf("creating backup (%s): %v", e.Cause, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As classification.
func (e *BackupError) Unwrap() error { return e.Err }

// createBackup snapshots the current executable at backupPath before the
// swap. Preferred mechanism is a hard link: atomic, same inode, no data
// copy — possible because backupPath is derived by suffixing and therefore
// on the same filesystem. When linking fails (e.g. a filesystem that
// forbids extra links to running binaries, or a permission issue) it falls
// back to a full content copy.
func createBackup(exePath, backupPath string) error {
	// A leftover backup at this pid's path belongs to a crashed earlier run
	// whose pid was since reused; the fresh snapshot supersedes it.
	if err := os.Remove(backupPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &BackupError{Cause: classifyBackupErr(err), Err: err}
	}

	if err := os.Link(exePath, backupPath); err == nil {
		return nil
	}

	if err := copyFile(exePath, backupPath); err != nil {
		// Never leave a truncated backup: a later rollback would install it.
		_ = os.Remove(backupPath)
		return &BackupError{Cause: classifyBackupErr(err), Err: err}
	}
	return nil
}

// copyFile copies src to dst preserving src's permission bits. dst is
// created exclusively so a racing finalize attempt cannot interleave
// writes into the same backup.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		// Read-only handle; close errors are exotic.
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// classifyBackupErr maps a copy failure to its reportable cause.
func classifyBackupErr(err error) BackupCause {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return BackupNoSpace
	case errors.Is(err, os.ErrPermission):
		return BackupPermission
	}
	return BackupOther
}

// promote performs the single atomic rename of the staged candidate onto
// the executable path. This is the sole state transition that changes
// which bytes the path resolves to: before it the path is the original
// binary, after it the candidate's exact bytes, never anything partial.
func promote(candPath, exePath string) error {
	if err := os.Rename(candPath, exePath); err != nil {
		return fmt.Errorf("renaming candidate onto executable: %w", err)
	}
	return nil
}

// restoreBackup renames the backup onto the executable path, undoing a
// promotion whose handoff could not be started.
func restoreBackup(backupPath, exePath string) error {
	if err := os.Rename(backupPath, exePath); err != nil {
		return fmt.Errorf("restoring backup onto executable: %w", err)
	}
	return nil
}
