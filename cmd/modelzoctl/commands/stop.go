package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop MODEL_NAME",
		Short: "Stop a locally running model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Success bool `json:"success"`
			}
			if err := clientFromFlags().post("/api/model/"+args[0]+"/stop", nil, &resp); err != nil {
				return fmt.Errorf("stopping %s: %w", args[0], err)
			}
			cmd.Printf("stopped %s\n", args[0])
			return nil
		},
	}
}
