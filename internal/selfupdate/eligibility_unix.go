// SPDX-License-Identifier: MPL-2.0

//go:build unix

package selfupdate

import (
	"golang.org/x/sys/unix"
)

// platformSupported reports whether in-place finalization works here. On
// unix the running binary's path can be renamed over while the process
// keeps executing its (unlinked) inode.
func platformSupported() bool { return true }

// checkDirectoryTrust rejects a containing directory that other users can
// write to. In such a directory any local user could have replaced the
// staged candidate (or the lock file) between our checks and the swap.
func checkDirectoryTrust(dir string) string {
	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		return "cannot stat executable directory: " + err.Error()
	}
	if st.Mode&(unix.S_IWGRP|unix.S_IWOTH) != 0 {
		return reasonWritableDir
	}
	return ""
}

// checkCandidateProvenance verifies the staged candidate against
// cross-user tampering: it must be owned by the same user/group as the
// current executable, and must have exactly one hard link so the inode
// cannot be aliased from elsewhere and rewritten after screening.
func checkCandidateProvenance(exePath, candPath string) string {
	var exe, cand unix.Stat_t
	if err := unix.Stat(exePath, &exe); err != nil {
		return "cannot stat executable: " + err.Error()
	}
	if err := unix.Lstat(candPath, &cand); err != nil {
		return "cannot stat staged candidate: " + err.Error()
	}

	if cand.Uid != exe.Uid || cand.Gid != exe.Gid {
		return reasonCandidateOwnership
	}
	if cand.Nlink != 1 {
		return reasonCandidateHardLinks
	}
	return ""
}
