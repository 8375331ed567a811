// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the running version. This is also the probe target the
// update finalizer runs against a staged candidate ("pinion --version"),
// so its output must stay cheap and side-effect free.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the pinion version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pinion version %s\n", getVersionString())
	},
}
