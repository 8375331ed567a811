// SPDX-License-Identifier: MPL-2.0

//go:build darwin

package selfupdate

import "os/exec"

// clearQuarantine removes the com.apple.quarantine extended attribute that
// macOS places on downloaded files, which would otherwise make Gatekeeper
// kill the promoted binary on first run. Best-effort: the attribute may
// not exist, and xattr may be unavailable.
func clearQuarantine(path string) {
	if _, err := exec.LookPath("xattr"); err != nil {
		return
	}
	_ = exec.Command("xattr", "-d", "com.apple.quarantine", path).Run()
}
