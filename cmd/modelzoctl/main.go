// Command modelzoctl is the operator CLI for a running modelzoo
// instance, talking to its dashboard HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/modelzoo/modelzoo/cmd/modelzoctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "modelzoctl:", err)
		os.Exit(1)
	}
}
