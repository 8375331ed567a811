// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"path/filepath"
	"strings"
)

// Managed installation roots. A binary living under one of these is owned
// by a package manager; finalizing an update behind its back would corrupt
// its bookkeeping, so the guard refuses.
const (
	homebrewMacARM   = "/opt/homebrew/"
	homebrewMacIntel = "/usr/local/Cellar/"
	homebrewLinux    = "/home/linuxbrew/.linuxbrew/"
	nixStore         = "/nix/store/"
)

// Screening refusal reasons. Stable strings so tests and verbose
// diagnostics can identify which check fired.
const (
	reasonUnsupportedPlatform = "platform does not support in-place finalization"
	reasonForeignBinary       = "executable name does not match product name"
	reasonManagedInstall      = "executable is inside a package-manager-owned directory"
	reasonPrivilegedBinary    = "executable has setuid or setgid bit set"
	reasonWritableDir         = "executable directory is group- or world-writable"
	reasonCandidateIrregular  = "staged candidate is not a regular file"
	reasonCandidateOwnership  = "staged candidate owner differs from executable owner"
	reasonCandidateHardLinks  = "staged candidate has more than one hard link"
	reasonSkipRequested       = "finalization disabled for this invocation"
)

// screenDecision is the result of the read-only eligibility screening.
type screenDecision struct {
	noStaged bool
	reason   string // empty means eligible
}

func (d screenDecision) eligible() bool { return !d.noStaged && d.reason == "" }

// screen runs the eligibility checks in order, each a hard stop. It reads
// filesystem state but never mutates it.
func screen(paths ExecPaths) screenDecision {
	if !platformSupported() {
		return screenDecision{reason: reasonUnsupportedPlatform}
	}

	// Candidate existence is the fast path: on virtually every invocation
	// there is nothing staged and nothing else runs. Lstat so that a
	// symlink candidate is seen (and later rejected) rather than followed.
	candInfo, err := os.Lstat(paths.Candidate())
	if err != nil {
		return screenDecision{noStaged: true}
	}

	if !productBinaryName(filepath.Base(paths.Executable)) {
		return screenDecision{reason: reasonForeignBinary}
	}

	if underManagedRoot(paths.Executable) {
		return screenDecision{reason: reasonManagedInstall}
	}

	exeInfo, err := os.Stat(paths.Executable)
	if err != nil {
		return screenDecision{reason: "cannot stat executable: " + err.Error()}
	}
	if exeInfo.Mode()&(os.ModeSetuid|os.ModeSetgid) != 0 {
		return screenDecision{reason: reasonPrivilegedBinary}
	}

	if reason := checkDirectoryTrust(filepath.Dir(paths.Executable)); reason != "" {
		return screenDecision{reason: reason}
	}

	if candInfo.Mode()&os.ModeSymlink != 0 || !candInfo.Mode().IsRegular() {
		return screenDecision{reason: reasonCandidateIrregular}
	}

	if reason := checkCandidateProvenance(paths.Executable, paths.Candidate()); reason != "" {
		return screenDecision{reason: reason}
	}

	return screenDecision{}
}

// productBinaryName reports whether base looks like an installed name of
// this product: "pinion", a versioned variant like "pinion-v2", or a name
// with an extension like "pinion.exe". Anything else means some other
// program is running with this package linked in.
func productBinaryName(base string) bool {
	if base == ProductName {
		return true
	}
	return strings.HasPrefix(base, ProductName+"-") || strings.HasPrefix(base, ProductName+".")
}

// underManagedRoot reports whether execPath is inside a directory a
// package manager owns: Homebrew prefixes, the Nix store, or GOPATH/bin
// (go install). Updates there belong to the package manager.
func underManagedRoot(execPath string) bool {
	if strings.Contains(execPath, homebrewMacARM) ||
		strings.Contains(execPath, homebrewMacIntel) ||
		strings.Contains(execPath, homebrewLinux) ||
		strings.Contains(execPath, nixStore) {
		return true
	}
	return inGOPATHBin(execPath)
}

// inGOPATHBin checks whether execPath is inside $GOPATH/bin, falling back
// to ~/go when GOPATH is unset, matching the Go toolchain default.
func inGOPATHBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}

	gopathBin := filepath.Clean(filepath.Join(gopath, "bin"))
	cleanExec := filepath.Clean(execPath)

	// The trailing separator pins the directory boundary, so
	// /home/user/gobin does not match /home/user/go/bin.
	return strings.HasPrefix(cleanExec, gopathBin+string(filepath.Separator))
}
