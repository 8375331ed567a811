// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"path/filepath"
	"strings"
)

// Launchers and wrapper stubs can leave their own tokens at the front of
// the argument vector (the stub script's path, a shim name). The handoff
// must hand the promoted binary only the user's real arguments, so leading
// tokens are classified against an explicit table of known launch shapes
// rather than ad-hoc heuristics. An unrecognized shape is handled
// conservatively: every argument after argv[0] passes through untouched.

// scriptSuffixes are file extensions of known wrapper scripts.
var scriptSuffixes = []string{".sh", ".bash", ".zsh", ".fish", ".cmd", ".bat", ".ps1"}

// launchShape describes one recognized form of argv[0] and how many
// leading tokens that form contributes beyond argv[0] itself.
type launchShape struct {
	name    string
	matches func(token, exePath string) bool

	// extraTokens is the number of additional leading tokens this shape
	// may inject. Only wrapper scripts inject one (the script re-passes
	// its own path); a directly invoked binary never does, so a user
	// argument that merely looks like a path is never eaten.
	extraTokens int
}

// launchShapes is the launch-shape table, checked in order.
var launchShapes = []launchShape{
	{
		name: "exact-path",
		matches: func(token, exePath string) bool {
			return token == exePath
		},
	},
	{
		name:        "wrapper-script",
		matches:     func(token, _ string) bool { return hasScriptSuffix(token) },
		extraTokens: 1,
	},
	{
		name: "path-token",
		matches: func(token, _ string) bool {
			return strings.ContainsRune(token, '/') || strings.ContainsRune(token, filepath.Separator)
		},
	},
	{
		name: "product-name",
		matches: func(token, _ string) bool {
			return strings.HasPrefix(filepath.Base(token), ProductName)
		},
	},
}

func hasScriptSuffix(token string) bool {
	lower := strings.ToLower(token)
	for _, suffix := range scriptSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// classifyLaunchShape returns the first shape matching argv[0], or nil
// when the shape is unrecognized.
func classifyLaunchShape(token, exePath string) *launchShape {
	for i := range launchShapes {
		if launchShapes[i].matches(token, exePath) {
			return &launchShapes[i]
		}
	}
	return nil
}

// stubToken reports whether token is something a wrapper stub re-passes
// about itself: the real executable path or a product-named file. A user
// argument that merely carries a script suffix matches neither, so it
// survives the extra-token stripping.
func stubToken(token, exePath string) bool {
	return token == exePath || productBinaryName(filepath.Base(token))
}

// userArgs reconstructs the user-facing argument vector from argv. The
// token at argv[0] is classified against the launch-shape table; wrapper
// shapes may additionally strip the stub tokens they inject, but only
// tokens that identify the stub or the binary itself. The second return
// reports whether argv[0] matched a known shape; when it did not,
// everything after argv[0] passes through unmodified.
func userArgs(argv []string, exePath string) (args []string, recognized bool) {
	if len(argv) == 0 {
		return nil, false
	}

	shape := classifyLaunchShape(argv[0], exePath)
	if shape == nil {
		return argv[1:], false
	}

	skip := 1
	for extra := shape.extraTokens; extra > 0 && skip < len(argv); extra-- {
		if !stubToken(argv[skip], exePath) {
			break
		}
		skip++
	}
	return argv[skip:], true
}
