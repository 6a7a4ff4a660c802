package commands

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type runningListener struct {
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

type runningModel struct {
	ModelName string          `json:"model_name"`
	ModelID   string          `json:"model_id"`
	Status    struct {
		Running bool `json:"running"`
		Ready   bool `json:"ready"`
	} `json:"status"`
	Listener runningListener `json:"listener"`
	Source   string          `json:"source"`
}

func newRunningCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List locally and remotely running models",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				RunningModels []runningModel `json:"running_models"`
			}
			if err := clientFromFlags().get("/api/running_models", &resp); err != nil {
				return fmt.Errorf("listing running models: %w", err)
			}
			cmd.Print(runningTable(resp.RunningModels))
			return nil
		},
	}
}

func runningTable(models []runningModel) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"MODEL", "SOURCE", "READY", "LISTENER"})
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, m := range models {
		listener := fmt.Sprintf("%s://%s:%d", m.Listener.Protocol, m.Listener.Host, m.Listener.Port)
		table.Append([]string{m.ModelName, m.Source, fmt.Sprintf("%t", m.Status.Ready), listener})
	}
	table.Render()
	return buf.String()
}
