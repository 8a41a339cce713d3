package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"itinera/internal/app"
	"itinera/internal/config"
	"itinera/internal/repository/postgres"
)

var (
	ownerFlag string
	limitFlag int
)

var rootCmd = &cobra.Command{
	Use:   "reingest",
	Short: "Replay archived booking documents for an owner",
	Long: `Reingest loads the raw sources archived for an owner and runs them through
extraction and trip consolidation again. Ingestion is idempotent, so only
bookings missed by earlier runs are added. No summary emails are sent.`,
	SilenceUsage: true,
	RunE:         runReingest,
}

func init() {
	rootCmd.Flags().StringVar(&ownerFlag, "owner", "", "owner id (UUID) whose archive is replayed")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "maximum number of documents to replay (0 = all)")
	_ = rootCmd.MarkFlagRequired("owner")
}

func runReingest(cmd *cobra.Command, _ []string) error {
	ownerID, err := uuid.Parse(ownerFlag)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Ingest.ArchiveSources {
		return errors.New("source archiving is disabled (ITINERA_INGEST_ARCHIVE_SOURCES); nothing to replay")
	}

	logger := app.NewLogger(cfg.Log, os.Stderr)

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	pipeline, err := app.BuildPipeline(cfg, db, logger)
	if err != nil {
		return err
	}

	summary, err := pipeline.Replay.ReplayOwner(cmd.Context(), ownerID, limitFlag)
	if summary != nil {
		fmt.Fprintf(cmd.OutOrStdout(),
			"documents: %d, failed: %d, bookings: %d, trips created: %d, trips merged: %d\n",
			summary.Documents, summary.Failed, summary.Bookings, summary.TripsCreated, summary.TripsMerged)
	}
	return err
}
