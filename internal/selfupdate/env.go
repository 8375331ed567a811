// SPDX-License-Identifier: MPL-2.0

package selfupdate

const (
	// EnvDepthMarker caps handoff recursion at one hop. The parent sets it
	// in the child's environment; a process that sees it never re-execs.
	EnvDepthMarker = "PINION_UPDATE_DEPTH"

	// EnvSkipFinalize disables finalization entirely for this invocation.
	// It is also set for the preflight child so that probing the candidate
	// cannot recursively enter its own finalizer.
	EnvSkipFinalize = "PINION_SKIP_FINALIZE"

	// EnvVerbose enables diagnostic output for the finalizer. All failure
	// paths are silent without it.
	EnvVerbose = "PINION_VERBOSE"
)
