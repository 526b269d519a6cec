package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bookmirror/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    *bool
	configPath *string
)

var rootCmd = &cobra.Command{
	Use:   "bookmirror",
	Short: "bookmirror searches a book catalog across all of its mirrors at once.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		err := telemetry.SetupFromEnv(cmd.Context(), "bookmirror")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := telemetry.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug information.")
	configPath = rootCmd.PersistentFlags().String("config", ConfigName, "The configuration file to read.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
