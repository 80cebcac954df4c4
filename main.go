// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/aicodewith/toolkeeper/cmd/toolkeeper"

func main() {
	cmd.Execute()
}
