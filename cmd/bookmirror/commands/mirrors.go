package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mirrorsCmd)
}

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "Lists the mirrors a search is sent to, in order.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := resolveRegistry(loadConfig())

		t := newTable()
		t.AppendHeader(table.Row{"#", "Mirror", "Dialect", "Endpoint", "Feed"})
		for i, d := range reg.Descriptors() {
			t.AppendRow(table.Row{i, d.Name(), d.Dialect(), d.Endpoint(), d.FeedURL()})
		}
		t.Render()
	},
}
