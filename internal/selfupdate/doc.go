// SPDX-License-Identifier: MPL-2.0

// Package selfupdate finalizes a pending self-update of the pinion binary.
// An external updater stages a candidate next to the running executable as
// "<exe>.new"; this package promotes it at process startup: eligibility
// screening, cross-process locking, a bounded preflight of the candidate,
// an atomic backup-and-swap, and a re-exec handoff that mirrors the child's
// exact exit status or terminating signal back to the caller.
//
// The package is organized by protocol stage:
//   - paths.go: resolved executable identity and derived sibling paths
//   - eligibility.go: read-only screening before anything is touched
//   - lock.go: non-blocking cross-process lock with staleness reclaim
//   - prepare.go: permission/ownership normalization and the preflight run
//   - swap.go: backup creation and the single atomic rename
//   - reexec.go, argv.go: handoff to the promoted binary
//   - sweep.go: retention sweep of old backups
//   - finalize.go: Finalizer facade composing the stages
//
// Every stage is best-effort: any failure abandons finalization and the
// surrounding tool continues on whichever binary is currently in place.
package selfupdate
