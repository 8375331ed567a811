// SPDX-License-Identifier: MPL-2.0

//go:build unix

package selfupdate

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyOwnership best-effort matches the candidate's owning user/group to
// the current executable's. Ignored on failure: chown to another uid needs
// privileges, and the eligibility screening already required the owners to
// match for the common case.
func copyOwnership(exePath, candPath string) {
	var st unix.Stat_t
	if err := unix.Stat(exePath, &st); err != nil {
		return
	}
	_ = os.Chown(candPath, int(st.Uid), int(st.Gid))
}
