// SPDX-License-Identifier: MPL-2.0

package main

import cmd "pinion-cli/cmd/pinion"

func main() {
	cmd.Execute()
}
