// SPDX-License-Identifier: MPL-2.0

package selfupdate

import "fmt"

// Stage names the protocol step at which a finalize attempt failed.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageLock      Stage = "lock"
	StagePrepare   Stage = "prepare"
	StagePreflight Stage = "preflight"
	StageBackup    Stage = "backup"
	StageSwap      Stage = "swap"
	StageSpawn     Stage = "spawn"
	StageHandoff   Stage = "handoff"
)

// OutcomeKind classifies the result of one finalize attempt.
type OutcomeKind int

const (
	// OutcomeNoStaged means no candidate file exists. This is the normal
	// fast path for virtually every invocation.
	OutcomeNoStaged OutcomeKind = iota

	// OutcomeIneligible means a read-only screening check refused the
	// attempt (unsupported platform, foreign binary, managed install,
	// privileged binary, tampered candidate, explicit skip, ...).
	OutcomeIneligible

	// OutcomeBusy means another process holds the update lock. That
	// process is expected to complete the update for everyone; this
	// invocation abandons finalization without touching anything.
	OutcomeBusy

	// OutcomeFailed means a mutating stage failed. The executable path
	// still resolves to a complete binary (old or, after a failed spawn
	// with successful rollback, old again).
	OutcomeFailed

	// OutcomeHandedOff means the swap succeeded and control passed to the
	// promoted binary. Run never actually returns this: the parent exits
	// mirroring the child. The constant exists for logging and tests that
	// stub the exit seam.
	OutcomeHandedOff

	// OutcomeAlreadyHandedOff means this process is itself the result of
	// a handoff (depth marker present). The update is complete; the
	// process continues running normally as the updated binary.
	OutcomeAlreadyHandedOff
)

// String returns the lowercase name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoStaged:
		return "no-staged"
	case OutcomeIneligible:
		return "ineligible"
	case OutcomeBusy:
		return "busy"
	case OutcomeFailed:
		return "failed"
	case OutcomeHandedOff:
		return "handed-off"
	case OutcomeAlreadyHandedOff:
		return "already-handed-off"
	}
	return "unknown"
}

// Outcome is the tagged result of a finalize attempt. The call chain
// returns outcomes rather than propagating errors so that a single
// top-level reducer can degrade every non-success to "continue with the
// current executable".
type Outcome struct {
	Kind   OutcomeKind
	Stage  Stage  // set when Kind is OutcomeFailed
	Reason string // set for Ineligible and Failed
	Err    error  // underlying cause, when one exists

	// RollbackFailed is set on a spawn-stage failure whose backup restore
	// also failed. This is the one outcome that warrants an always-on
	// warning: the on-disk binary may differ from the one running.
	RollbackFailed bool
}

// failed builds a Failed outcome for the given stage.
func failed(stage Stage, reason string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Stage: stage, Reason: reason, Err: err}
}

// ineligible builds an Ineligible outcome with the screening reason.
func ineligible(reason string) Outcome {
	return Outcome{Kind: OutcomeIneligible, Reason: reason}
}

// String renders the outcome for diagnostic logging.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFailed:
		if o.Err != nil {
			return fmt.Sprintf("%s at %s: %s: %v", o.Kind, o.Stage, o.Reason, o.Err)
		}
		return fmt.Sprintf("%s at %s: %s", o.Kind, o.Stage, o.Reason)
	case OutcomeIneligible:
		return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
	}
	return o.Kind.String()
}
