package commands

import (
	"bytes"
	"fmt"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type catalogModel struct {
	ZooName   string `json:"zoo_name"`
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	ModelSize int64  `json:"model_size"`
}

type catalogZoo struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type catalogResponse struct {
	Zoos   []catalogZoo   `json:"zoos"`
	Models []catalogModel `json:"models"`
}

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List models available for launch across every enabled zoo",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp catalogResponse
			if err := clientFromFlags().get("/api/catalog", &resp); err != nil {
				return fmt.Errorf("listing catalog: %w", err)
			}
			cmd.Print(catalogTable(resp))
			return nil
		},
	}
	return c
}

func catalogTable(resp catalogResponse) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"ZOO", "MODEL", "SIZE", "ID"})
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, m := range resp.Models {
		size := "-"
		if m.ModelSize > 0 {
			size = units.HumanSize(float64(m.ModelSize))
		}
		table.Append([]string{m.ZooName, m.ModelName, size, m.ModelID})
	}
	table.Render()
	return buf.String()
}
