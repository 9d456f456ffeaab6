package main

import (
	"os"

	"github.com/insightdelivered/payout-ledger/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
