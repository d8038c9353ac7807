// Command storecleanup runs the one-time store cleanup: the full cleaning
// pass with the publication-year cutoff enabled, which the scheduled cleaner
// leaves off by default.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/config"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/infrastructure/storage"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/logging"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/usecase"
	"github.com/advanceai-medora/Medora-AI-sub000/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	out := logger.New("storecleanup")

	if cfg.Database.DSN == "" {
		out.Println("DATABASE_DSN is required")
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		out.Printf("open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	cleaner := usecase.NewCleaner(store, logging.New(cfg.Logging.Level).With("component", "cleaner"))

	report, err := cleaner.Run(ctx, usecase.CleanOptions{YearCutoff: cfg.Cleaner.YearCutoff})
	if err != nil {
		out.Printf("cleanup failed: %v", err)
		os.Exit(1)
	}

	out.Printf("run %s: scanned=%d deleted=%d rewritten=%d by_rule=%v",
		report.RunID, report.Scanned, report.Deleted, report.Rewritten, report.DeletedBy)
}
