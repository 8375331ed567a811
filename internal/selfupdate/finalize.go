// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"pinion-cli/internal/testutil"
)

type (
	// Finalizer composes the protocol stages into one best-effort run. It
	// is the facade the CLI calls at the very start of every invocation,
	// before any other work.
	Finalizer struct {
		logger           *log.Logger
		clock            testutil.Clock
		policy           StalenessPolicy
		retention        time.Duration
		preflightTimeout time.Duration
		argv             []string
	}

	// Option configures a Finalizer during construction.
	Option func(*Finalizer)
)

// WithLogger routes diagnostic output to the given logger. Without it the
// finalizer is completely silent, which is the default contract: this is
// background maintenance, not a user-facing feature.
func WithLogger(logger *log.Logger) Option {
	return func(f *Finalizer) { f.logger = logger }
}

// WithClock overrides the clock used for lock staleness and backup
// retention decisions.
func WithClock(clock testutil.Clock) Option {
	return func(f *Finalizer) {
		f.clock = clock
		f.policy.Clock = clock
	}
}

// WithStalenessPolicy overrides the lock staleness policy.
func WithStalenessPolicy(policy StalenessPolicy) Option {
	return func(f *Finalizer) { f.policy = policy }
}

// WithRetention overrides the backup retention window.
func WithRetention(d time.Duration) Option {
	return func(f *Finalizer) {
		if d > 0 {
			f.retention = d
		}
	}
}

// WithPreflightTimeout overrides the preflight execution bound.
func WithPreflightTimeout(d time.Duration) Option {
	return func(f *Finalizer) {
		if d > 0 {
			f.preflightTimeout = d
		}
	}
}

// New creates a Finalizer with production defaults: silent logging, real
// clock, 10 minute lock staleness, 24 hour backup retention, 5 second
// preflight bound.
func New(opts ...Option) *Finalizer {
	f := &Finalizer{
		retention:        defaultRetention,
		preflightTimeout: defaultPreflightTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	if f.clock == nil {
		f.clock = testutil.RealClock{}
	}
	if f.policy.Clock == nil {
		f.policy.Clock = f.clock
	}
	return f
}

// report narrates a non-success outcome before handing it back, so every
// abandoned attempt names its stage and reason under verbose diagnostics.
func (f *Finalizer) report(out Outcome) Outcome {
	switch out.Kind {
	case OutcomeIneligible, OutcomeBusy, OutcomeFailed:
		f.logger.Debug("finalization abandoned", "outcome", out.String())
	}
	return out
}

// Run executes one finalize attempt for the current process, with argv as
// the raw argument vector (normally os.Args). It either returns an
// Outcome — in which case the caller proceeds with whichever binary is
// currently in place — or, after a successful swap and handoff, exits the
// process mirroring the promoted binary's termination.
func (f *Finalizer) Run(ctx context.Context, argv []string) Outcome {
	f.argv = argv

	if os.Getenv(EnvSkipFinalize) != "" {
		return f.report(ineligible(reasonSkipRequested))
	}

	if alreadyHandedOff() {
		// This process is the promoted binary. The parent handles backup
		// deletion and status propagation; nothing to do but continue.
		f.logger.Debug("running as updated binary after handoff")
		return Outcome{Kind: OutcomeAlreadyHandedOff}
	}

	paths, err := ResolveExecPaths()
	if err != nil {
		return f.report(failed(StageResolve, "cannot resolve executable identity", err))
	}

	dec := screen(paths)
	if dec.noStaged {
		return Outcome{Kind: OutcomeNoStaged}
	}
	if !dec.eligible() {
		return f.report(ineligible(dec.reason))
	}

	f.logger.Debug("staged candidate found", "candidate", paths.Candidate())

	hostname, _ := os.Hostname()
	manager := NewLockManager(f.policy)
	manager.logger = f.logger
	handle, err := manager.Acquire(paths.Lock(), LockRecord{
		PID:        os.Getpid(),
		AcquiredAt: f.clock.Now(),
		Hostname:   hostname,
		Executable: paths.Executable,
	})
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			// The holder is expected to complete the update for everyone.
			return f.report(Outcome{Kind: OutcomeBusy})
		}
		return f.report(failed(StageLock, "cannot acquire update lock", err))
	}
	// Belt and braces for early returns; Release is idempotent and the
	// success path releases explicitly before the handoff.
	defer func() { _ = handle.Release() }()

	if err := prepareCandidate(paths.Executable, paths.Candidate()); err != nil {
		return f.report(failed(StagePrepare, "cannot normalize candidate", err))
	}

	reported, err := preflight(ctx, paths.Candidate(), f.preflightTimeout)
	if err != nil {
		return f.report(failed(StagePreflight, "candidate failed trial run", err))
	}
	if reported != "" {
		f.logger.Debug("candidate preflight succeeded", "version", reported)
	}

	backupPath := paths.Backup(os.Getpid())
	if err := createBackup(paths.Executable, backupPath); err != nil {
		reason := "cannot create backup"
		var be *BackupError
		if errors.As(err, &be) {
			reason = "cannot create backup: " + be.Cause.String()
		}
		return f.report(failed(StageBackup, reason, err))
	}

	if err := promote(paths.Candidate(), paths.Executable); err != nil {
		// The original binary is untouched; the backup is now pointless.
		_ = os.Remove(backupPath)
		return f.report(failed(StageSwap, "cannot promote candidate", err))
	}

	f.logger.Debug("candidate promoted", "executable", paths.Executable, "backup", backupPath)

	// The critical section ends with the swap. Release before the handoff
	// so concurrent invocations (and the child, whose depth marker skips
	// finalization anyway) see no lock.
	if err := handle.Release(); err != nil {
		f.logger.Debug("could not remove lock file", "error", err)
	}

	return f.report(f.handOff(paths, backupPath, func() {
		f.sweepBackups(paths, backupPath)
	}))
}
