// rome-export — ROME occupation lookup and spreadsheet export.
//
// Fetches occupation records from the France Travail ROME 4.0 API,
// flattens them into one row per code with derived working-conditions
// columns, and serves or writes them as XLSX/CSV.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
