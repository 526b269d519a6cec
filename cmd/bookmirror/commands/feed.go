package commands

import (
	"fmt"
	"os"
	"strconv"

	"bookmirror/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed [mirror-index]",
	Short: "Prints the recently added books of a mirror, the first one by default.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		reg := resolveRegistry(cfg)

		index := 0
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				serviceutil.Fatal("invalid mirror index", err)
			}
			index = parsed
		}
		d, ok := reg.Get(index)
		if !ok {
			fmt.Fprintf(os.Stderr, "there is no mirror %d, see `bookmirror mirrors`\n", index)
			os.Exit(1)
		}

		records, err := newCoordinator(cfg, "").Feed(cmd.Context(), d)
		if err != nil {
			serviceutil.Fatal("failed to fetch feed", err)
		}
		renderFeed(records)
	},
}
