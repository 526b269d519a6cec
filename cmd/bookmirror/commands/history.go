package commands

import (
	"context"
	"fmt"

	"bookmirror/internal/components/chrono"
	"bookmirror/internal/store"
	"bookmirror/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyDb    *string
	historyLimit *int
)

func init() {
	historyDb = historyCmd.Flags().String("db", "bookmirror.db", "The sqlite database searches were recorded in.")
	historyLimit = historyCmd.Flags().Int("limit", 20, "The number of searches to list.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path/to/searches.db>]",
	Short: "Lists the searches recorded with `search --db`.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		searches, err := listHistory(cmd.Context(), *historyDb, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list searches", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "When", "Query", "Searched As", "Mirror", "Results", "Failures"})
		for _, s := range searches {
			t.AppendRow(table.Row{
				s.ID,
				s.CreatedAt.Format("2006-01-02 15:04"),
				s.RawQuery,
				s.Query,
				s.Mirror,
				len(s.Records),
				len(s.Failures),
			})
		}
		t.Render()
	},
}

// listHistory reads the most recent searches from the database at path.
func listHistory(ctx context.Context, path string, limit int) ([]store.Search, error) {
	st, err := store.Open(path, chrono.NewStandardImpl(), newTelemetryAPI())
	if err != nil {
		return nil, err
	}
	defer st.Close()

	searches, err := st.RecentSearches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	return searches, nil
}
