// Command reingest replays archived source documents of one owner through the
// ingestion pipeline. Bookings already stored are skipped.
// Usage: go run ./cmd/reingest --owner <uuid> [--limit N]
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
