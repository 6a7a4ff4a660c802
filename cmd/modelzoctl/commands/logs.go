package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs MODEL_NAME",
		Short: "Show the captured stdout/stderr ring buffer for a running model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Logs []string `json:"logs"`
			}
			if err := clientFromFlags().get("/api/model/"+args[0]+"/logs", &resp); err != nil {
				return fmt.Errorf("fetching logs for %s: %w", args[0], err)
			}
			for _, line := range resp.Logs {
				cmd.Println(line)
			}
			return nil
		},
	}
}
