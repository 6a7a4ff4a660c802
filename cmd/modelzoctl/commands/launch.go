package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type launchRequest struct {
	ModelID      string                 `json:"model_id"`
	Runtime      string                 `json:"runtime"`
	Environments []string               `json:"environments,omitempty"`
	Port         int                    `json:"port"`
	Params       map[string]interface{} `json:"params,omitempty"`
}

func newLaunchCmd() *cobra.Command {
	var runtimeName string
	var environments []string
	var port int

	c := &cobra.Command{
		Use:   "launch MODEL_ID",
		Short: "Launch a model under a given runtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runtimeName == "" {
				return fmt.Errorf("--runtime is required")
			}
			if port == 0 {
				return fmt.Errorf("--port is required")
			}
			req := launchRequest{
				ModelID:      args[0],
				Runtime:      runtimeName,
				Environments: environments,
				Port:         port,
			}
			var resp struct {
				Success bool `json:"success"`
			}
			if err := clientFromFlags().post("/api/model/launch", req, &resp); err != nil {
				return fmt.Errorf("launching %s: %w", args[0], err)
			}
			cmd.Printf("launched %s on port %d\n", args[0], port)
			return nil
		},
	}
	c.Flags().StringVar(&runtimeName, "runtime", "", "runtime class to launch under")
	c.Flags().StringSliceVar(&environments, "environment", nil, "named environment(s) to apply, comma-separated")
	c.Flags().IntVar(&port, "port", 0, "port the backend should listen on (required)")
	return c
}
