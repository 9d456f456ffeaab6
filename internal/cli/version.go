package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version, shared with the HTTP API.
const Version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "payout-ledger v%s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
