// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/spackenv/cmd/spackenv"

func main() {
	cmd.Execute()
}
