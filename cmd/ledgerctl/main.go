// Command ledgerctl runs maintenance tasks against the ledger: schema
// migrations, one-off accrual ticks and the plan calculator.
package main

import (
	"os"

	log "github.com/charmbracelet/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
