// SPDX-License-Identifier: Apache-2.0
package main

import "github.com/Work-Fort/Onboard/cmd"

func main() {
	cmd.Execute()
}
