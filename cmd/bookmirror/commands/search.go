package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"bookmirror/internal/components/chrono"
	"bookmirror/internal/race"
	"bookmirror/internal/store"
	"bookmirror/internal/variants"
	"bookmirror/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	searchLimit   *int
	searchTimeout *time.Duration
	searchNoRace  *bool
	searchDb      *string
	searchDumpDir *string
)

func init() {
	searchLimit = searchCmd.Flags().Int("limit", 0, "The number of results to ask each mirror for.")
	searchTimeout = searchCmd.Flags().Duration("timeout", 0, "The timeout of each request to a mirror.")
	searchNoRace = searchCmd.Flags().Bool("no-race", false, "Only search the first mirror.")
	searchDb = searchCmd.Flags().String("db", "", "A sqlite database to record the search in.")
	searchDumpDir = searchCmd.Flags().String("dump-dir", "", "A directory to dump every http exchange into.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Searches every mirror and prints the results of the first one to answer.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		opts := race.Options{
			Limit:          cfg.Limit,
			Timeout:        cfg.timeout(),
			RaceAllMirrors: cfg.raceAllMirrors(),
		}
		if *searchLimit > 0 {
			opts.Limit = *searchLimit
		}
		if *searchTimeout > 0 {
			opts.Timeout = *searchTimeout
		}
		if *searchNoRace {
			opts.RaceAllMirrors = false
		}

		rawQuery := strings.Join(args, " ")
		queries := variants.Expand(rawQuery)
		if len(queries) == 0 {
			fmt.Fprintln(os.Stderr, "the query is empty")
			os.Exit(1)
		}

		reg := resolveRegistry(cfg)
		coordinator := newCoordinator(cfg, *searchDumpDir)

		t1 := time.Now()
		outcome := coordinator.Search(cmd.Context(), queries, reg, opts)
		t2 := time.Now()
		slog.Debug(
			"search finished",
			"seconds", t2.Sub(t1).Seconds(),
			"mirror", outcome.Mirror,
			"query", outcome.Query,
		)

		if *searchDb != "" {
			_, err := recordSearch(cmd.Context(), *searchDb, rawQuery, outcome)
			if err != nil {
				serviceutil.Fatal("failed to record search", err)
			}
		}

		renderFailures(outcome.Failures)
		if len(outcome.Records) == 0 {
			fmt.Fprintf(os.Stderr, "no mirror had results for %q\n", rawQuery)
			return
		}
		fmt.Printf("%d results from %s for %q\n", len(outcome.Records), outcome.Mirror, outcome.Query)
		renderRecords(outcome.Records)
	},
}

// recordSearch saves an outcome to the database at path and closes it again.
func recordSearch(ctx context.Context, path, rawQuery string, outcome race.Outcome) (int64, error) {
	st, err := store.Open(path, chrono.NewStandardImpl(), newTelemetryAPI())
	if err != nil {
		return 0, err
	}
	defer st.Close()

	id, err := st.SaveOutcome(ctx, rawQuery, outcome)
	if err != nil {
		return 0, fmt.Errorf("save search: %w", err)
	}
	return id, nil
}
