// SPDX-License-Identifier: MPL-2.0

//go:build unix

package selfupdate

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	// raiseSignal is a test seam: re-raising SIGINT against the test
	// process would kill the test runner.
	//
	//nolint:gochecknoglobals // Test seam for unix.Kill.
	raiseSignal = func(sig syscall.Signal) error {
		return unix.Kill(os.Getpid(), sig)
	}
)

// terminationSignal extracts the fatal signal from a child's wait status,
// reporting signaled=false for a normal exit.
func terminationSignal(state *os.ProcessState) (sig syscall.Signal, signaled bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return ws.Signal(), true
}
