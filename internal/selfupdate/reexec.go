// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

var (
	// osExit is a test seam: handoff termination must be observable in
	// tests without killing the test process.
	//
	//nolint:gochecknoglobals // Test seam for os.Exit.
	osExit = os.Exit
)

// alreadyHandedOff reports whether this process is itself the result of a
// prior handoff. The depth marker caps re-exec recursion at exactly one
// hop: the promoted child sees the marker and continues running normally.
func alreadyHandedOff() bool {
	return os.Getenv(EnvDepthMarker) != ""
}

// handOff spawns the newly promoted binary with the reconstructed user
// arguments and mirrors its exact termination back onto this process. On
// success it does not return: the parent exits with the child's exit code
// or re-raises the child's fatal signal against itself.
//
// Interrupt and terminate are ignored for the duration of the window so a
// concurrent Ctrl-C (which the terminal delivers to the whole foreground
// group, child included) cannot kill the parent before it observes the
// child's outcome.
//
// If the spawn itself fails, the backup is renamed back onto the
// executable path and a Failed outcome reports whether that rollback
// succeeded. afterChild runs once the child has completed, after the
// backup is deleted and before termination is propagated.
func (f *Finalizer) handOff(paths ExecPaths, backupPath string, afterChild func()) Outcome {
	args, recognized := userArgs(f.argv, paths.Executable)
	if !recognized && len(f.argv) > 0 {
		f.logger.Debug("unrecognized launch shape, passing all arguments through",
			"argv0", f.argv[0])
	}

	signal.Ignore(os.Interrupt, syscall.SIGTERM)
	defer signal.Reset(os.Interrupt, syscall.SIGTERM)

	cmd := exec.Command(paths.Executable, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), EnvDepthMarker+"=1")

	if err := cmd.Start(); err != nil {
		// The path currently resolves to the new binary but it cannot be
		// started; put the known-good backup binary back.
		if rbErr := restoreBackup(backupPath, paths.Executable); rbErr != nil {
			out := failed(StageSpawn, "spawn failed and rollback failed", err)
			out.RollbackFailed = true
			return out
		}
		return failed(StageSpawn, "spawn failed, rollback succeeded", err)
	}

	f.logger.Debug("handed off to promoted binary", "pid", cmd.Process.Pid, "args", args)

	waitErr := cmd.Wait()
	if cmd.ProcessState == nil {
		// Wait failed before the child's status could be collected; the
		// update itself is durable, so keep the backup for inspection and
		// continue running as-is.
		return failed(StageHandoff, "could not observe child termination", waitErr)
	}

	// The new binary demonstrably ran to completion: the update is
	// confirmed durable and the rollback copy has no further purpose.
	_ = os.Remove(backupPath)

	if afterChild != nil {
		afterChild()
	}

	propagateTermination(cmd.ProcessState)
	return Outcome{Kind: OutcomeHandedOff} // reached only when osExit is stubbed
}

// propagateTermination makes this process terminate exactly as the child
// did: same exit code, or same fatal signal re-raised against itself so
// the parent's own waiters observe a signal death rather than an exit.
func propagateTermination(state *os.ProcessState) {
	if sig, signaled := terminationSignal(state); signaled {
		signal.Reset(sig)
		_ = raiseSignal(sig)
		// Reached only if the signal's disposition did not kill us
		// (blocked or ignored at the OS level); use the shell convention.
		osExit(128 + int(sig))
	}
	osExit(state.ExitCode())
}
