// Package commands implements the modelzoctl CLI: a cobra command tree
// that talks to a running modelzoo dashboard over HTTP, mirroring the
// shape of the Docker Model CLI's command package but against our own
// admin API rather than the Docker Engine.
package commands

import (
	"github.com/spf13/cobra"
)

var host string

// NewRootCmd builds the modelzoctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modelzoctl",
		Short:         "Control a running modelzoo instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&host, "host", "http://127.0.0.1:8080", "dashboard base URL")

	root.AddCommand(
		newListCmd(),
		newLaunchCmd(),
		newStopCmd(),
		newLogsCmd(),
		newStatusCmd(),
		newZooCmd(),
		newRunningCmd(),
	)
	return root
}

func clientFromFlags() *client {
	return newClient(host)
}
