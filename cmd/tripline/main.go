// tripline — the leave-one-out attribution guardrail, as a standalone CLI.
package main

import "github.com/corvid-labs/tripline/cmd/tripline/cmd"

func main() {
	cmd.Execute()
}
