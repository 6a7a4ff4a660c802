package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status MODEL_NAME",
		Short: "Show the running/ready status of a locally launched model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Running bool `json:"running"`
				Ready   bool `json:"ready"`
			}
			if err := clientFromFlags().get("/api/model/"+args[0]+"/status", &resp); err != nil {
				return fmt.Errorf("fetching status for %s: %w", args[0], err)
			}
			cmd.Printf("%s: running=%t ready=%t\n", args[0], resp.Running, resp.Ready)
			return nil
		},
	}
}
