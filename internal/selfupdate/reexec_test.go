// SPDX-License-Identifier: MPL-2.0

//go:build unix

package selfupdate

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

// exitSentinel is panicked by the stubbed exit seam so tests can observe
// the termination the handoff would have performed.
type exitSentinel struct{ code int }

// stubTermination replaces the exit and signal-raise seams for the
// duration of the test. Raised signals are recorded instead of delivered.
func stubTermination(t *testing.T) *[]syscall.Signal {
	t.Helper()

	var raised []syscall.Signal
	origExit := osExit
	origRaise := raiseSignal
	osExit = func(code int) { panic(exitSentinel{code: code}) }
	raiseSignal = func(sig syscall.Signal) error {
		raised = append(raised, sig)
		return nil
	}
	t.Cleanup(func() {
		osExit = origExit
		raiseSignal = origRaise
	})
	return &raised
}

// runHandOff invokes handOff and converts a stubbed-exit panic back into
// an (exited, code) observation.
func runHandOff(t *testing.T, f *Finalizer, paths ExecPaths, backupPath string, afterChild func()) (outcome Outcome, exited bool, code int) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			s, ok := r.(exitSentinel)
			if !ok {
				panic(r)
			}
			exited = true
			code = s.code
		}
	}()
	outcome = f.handOff(paths, backupPath, afterChild)
	return outcome, exited, code
}

// handoffFixture lays out a promoted "binary" (a script) and a backup
// sibling, as the world looks immediately after a successful swap.
func handoffFixture(t *testing.T, body string) (ExecPaths, string) {
	t.Helper()

	dir := t.TempDir()
	exe := filepath.Join(dir, "pinion")
	writeScript(t, exe, body)
	paths := ExecPaths{Executable: exe}
	backup := paths.Backup(os.Getpid())
	if err := os.WriteFile(backup, []byte("known good"), 0o755); err != nil {
		t.Fatalf("writing backup: %v", err)
	}
	return paths, backup
}

func TestHandOffPropagatesExitCode(t *testing.T) {
	stubTermination(t)
	paths, backup := handoffFixture(t, "exit 7")

	f := New()
	f.argv = []string{"pinion"}

	afterChildRan := false
	_, exited, code := runHandOff(t, f, paths, backup, func() { afterChildRan = true })
	if !exited {
		t.Fatal("handOff returned without exiting")
	}
	if code != 7 {
		t.Errorf("propagated exit code = %d, want 7", code)
	}
	if !afterChildRan {
		t.Error("afterChild hook did not run")
	}
	if _, err := os.Lstat(backup); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup still present after confirmed handoff")
	}
}

func TestHandOffPropagatesFatalSignal(t *testing.T) {
	raised := stubTermination(t)
	paths, backup := handoffFixture(t, "kill -TERM $$")

	f := New()
	f.argv = []string{"pinion"}

	_, exited, code := runHandOff(t, f, paths, backup, nil)
	if !exited {
		t.Fatal("handOff returned without exiting")
	}
	if len(*raised) != 1 || (*raised)[0] != syscall.SIGTERM {
		t.Fatalf("raised signals = %v, want [SIGTERM]", *raised)
	}
	// With the raise stubbed out the shell fallback applies.
	if want := 128 + int(syscall.SIGTERM); code != want {
		t.Errorf("fallback exit code = %d, want %d", code, want)
	}
	if _, err := os.Lstat(backup); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup still present after confirmed handoff")
	}
}

func TestHandOffPassesUserArguments(t *testing.T) {
	stubTermination(t)
	// The child exits with its argument count, which observably proves the
	// stub token was stripped and the user argument survived.
	paths, backup := handoffFixture(t, "exit $#")

	f := New()
	f.argv = []string{"/opt/wrap/pinion.sh", "/opt/wrap/pinion.sh", "run"}

	_, exited, code := runHandOff(t, f, paths, backup, nil)
	if !exited {
		t.Fatal("handOff returned without exiting")
	}
	if code != 1 {
		t.Errorf("child saw %d arguments, want exactly the user's 1", code)
	}
}

func TestHandOffSpawnFailureRollsBack(t *testing.T) {
	stubTermination(t)
	paths, backup := handoffFixture(t, "exit 0")

	// A non-executable file at the promoted path defeats the spawn.
	if err := os.Chmod(paths.Executable, 0o644); err != nil {
		t.Fatalf("chmod exe: %v", err)
	}

	f := New()
	f.argv = []string{"pinion"}

	out, exited, _ := runHandOff(t, f, paths, backup, nil)
	if exited {
		t.Fatal("handOff exited despite spawn failure")
	}
	if out.Kind != OutcomeFailed || out.Stage != StageSpawn {
		t.Fatalf("outcome = %+v, want Failed at spawn", out)
	}
	if out.RollbackFailed {
		t.Error("RollbackFailed set despite available backup")
	}

	data, err := os.ReadFile(paths.Executable)
	if err != nil {
		t.Fatalf("reading executable: %v", err)
	}
	if string(data) != "known good" {
		t.Errorf("executable content = %q, want restored backup bytes", data)
	}
}

func TestHandOffSpawnFailureWithoutBackup(t *testing.T) {
	stubTermination(t)
	paths, backup := handoffFixture(t, "exit 0")
	if err := os.Chmod(paths.Executable, 0o644); err != nil {
		t.Fatalf("chmod exe: %v", err)
	}
	if err := os.Remove(backup); err != nil {
		t.Fatalf("removing backup: %v", err)
	}

	f := New()
	f.argv = []string{"pinion"}

	out, exited, _ := runHandOff(t, f, paths, backup, nil)
	if exited {
		t.Fatal("handOff exited despite spawn failure")
	}
	if out.Kind != OutcomeFailed || out.Stage != StageSpawn {
		t.Fatalf("outcome = %+v, want Failed at spawn", out)
	}
	if !out.RollbackFailed {
		t.Error("RollbackFailed not set though the backup was gone")
	}
}

func TestAlreadyHandedOff(t *testing.T) {
	if alreadyHandedOff() {
		t.Fatal("alreadyHandedOff true without depth marker")
	}
	t.Setenv(EnvDepthMarker, "1")
	if !alreadyHandedOff() {
		t.Fatal("alreadyHandedOff false with depth marker set")
	}
}
