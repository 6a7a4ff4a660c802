package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newZooCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zoo",
		Short: "Manage zoo enablement",
	}
	root.AddCommand(newZooToggleCmd())
	return root
}

func newZooToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle NAME",
		Short: "Flip a zoo's enabled state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Enabled bool `json:"enabled"`
			}
			if err := clientFromFlags().post("/api/zoo/"+args[0]+"/toggle", nil, &resp); err != nil {
				return fmt.Errorf("toggling zoo %s: %w", args[0], err)
			}
			cmd.Printf("zoo %s enabled=%t\n", args[0], resp.Enabled)
			return nil
		},
	}
}
