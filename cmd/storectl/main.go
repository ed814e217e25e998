// Command storectl is the operator CLI for coldvault: registering users
// against an index and inspecting bucket metrics over the wire API.
package main

import (
	"fmt"
	"os"

	"github.com/coldvault/core/cmd/storectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
