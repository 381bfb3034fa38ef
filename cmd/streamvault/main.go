// Command streamvault is the CLI surface for the recording engine: daemon
// lifecycle control, record administration, and channel registry
// maintenance. Grounded on 88lin-divinesense/cmd/divinesense/main.go's
// single cobra root command + viper flag binding + signal-channel graceful
// shutdown (the teacher itself ships two argument-less binaries, not a
// dispatcher; this repo collapses api-server/worker into one binary per
// SPEC_FULL.md §6's CLI surface).
package main

import (
	"fmt"
	"os"

	"github.com/kovanka/streamvault/cmd/streamvault/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
