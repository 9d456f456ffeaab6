package cli

import (
	"github.com/spf13/cobra"

	"github.com/insightdelivered/payout-ledger/internal/config"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "payout-ledger",
	Short: "Convert delivery-platform payout statements into journal entries",
	Long: `payout-ledger reads a delivery-platform payout statement (pasted text,
a text file, or a PDF) and produces one balanced journal entry per deposit,
ready for ledger import.

Each deposit's gross sales, itemized fees, collected and withheld sales tax
and net payout are extracted, checked against each other, and posted against
the configured chart of accounts. Entries that do not balance are still
written but reported.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./payout-ledger.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level: debug, info, warn, error")
}

// loadConfig applies command-line overrides on top of the config file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}
