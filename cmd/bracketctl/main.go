package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bracketctl",
	Short: "Offline tools for battle-royale tournament organizers",
	Long: `bracketctl helps organizers prepare and check a tournament without a server.

It can dry-run the qualifier lobby partition and recompute standings from a
TOML file with game results.
`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newPlanCmd(), newStandingsCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
