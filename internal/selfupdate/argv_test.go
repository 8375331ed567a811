// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"reflect"
	"testing"
)

func TestUserArgs(t *testing.T) {
	const exePath = "/usr/local/bin/pinion"

	tests := []struct {
		name           string
		argv           []string
		wantArgs       []string
		wantRecognized bool
	}{
		{
			name:           "plain product name",
			argv:           []string{"pinion", "run", "build"},
			wantArgs:       []string{"run", "build"},
			wantRecognized: true,
		},
		{
			name:           "exact executable path",
			argv:           []string{exePath, "--verbose", "version"},
			wantArgs:       []string{"--verbose", "version"},
			wantRecognized: true,
		},
		{
			name:           "relative path invocation",
			argv:           []string{"./pinion", "update", "status"},
			wantArgs:       []string{"update", "status"},
			wantRecognized: true,
		},
		{
			name:           "wrapper script re-passing the stub path",
			argv:           []string{"/opt/wrap/pinion.sh", "/opt/wrap/pinion.sh", "run"},
			wantArgs:       []string{"run"},
			wantRecognized: true,
		},
		{
			name:           "wrapper script without extra token",
			argv:           []string{"/opt/wrap/launch.sh", "run"},
			wantArgs:       []string{"run"},
			wantRecognized: true,
		},
		{
			name:           "wrapper script re-passing the real executable path",
			argv:           []string{"/opt/wrap/launch.sh", exePath, "run"},
			wantArgs:       []string{"run"},
			wantRecognized: true,
		},
		{
			name: "wrapper script with a script-suffixed user argument",
			argv: []string{"/opt/wrap/launch.sh", "build.sh"},
			// "build.sh" identifies neither the stub nor the binary, so it
			// is a user argument, not an injected token.
			wantArgs:       []string{"build.sh"},
			wantRecognized: true,
		},
		{
			name: "direct invocation never eats a path-like user argument",
			argv: []string{"pinion", "./notes.txt"},
			// "pinion" is a direct shape with no extra tokens, so the
			// path-like first argument must survive.
			wantArgs:       []string{"./notes.txt"},
			wantRecognized: true,
		},
		{
			name:           "versioned binary name",
			argv:           []string{"pinion-v2", "run"},
			wantArgs:       []string{"run"},
			wantRecognized: true,
		},
		{
			name:           "unrecognized shape passes everything through",
			argv:           []string{"weirdshim", "a", "b"},
			wantArgs:       []string{"a", "b"},
			wantRecognized: false,
		},
		{
			name:           "empty argv",
			argv:           nil,
			wantArgs:       nil,
			wantRecognized: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, recognized := userArgs(tt.argv, exePath)
			if recognized != tt.wantRecognized {
				t.Errorf("recognized = %v, want %v", recognized, tt.wantRecognized)
			}
			if len(args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestClassifyLaunchShape(t *testing.T) {
	const exePath = "/usr/local/bin/pinion"

	tests := []struct {
		token string
		want  string
	}{
		{exePath, "exact-path"},
		{"/opt/wrap/run.sh", "wrapper-script"},
		{"/some/other/binary", "path-token"},
		{"pinion", "product-name"},
		{"pinion-nightly", "product-name"},
		{"mystery", ""},
	}
	for _, tt := range tests {
		var got string
		if shape := classifyLaunchShape(tt.token, exePath); shape != nil {
			got = shape.name
		}
		if got != tt.want {
			t.Errorf("classifyLaunchShape(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}
