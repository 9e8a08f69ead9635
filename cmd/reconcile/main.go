// cmd/reconcile/main.go
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/app"
	"github.com/dangerclosesec/orgtodo/internal/config"
)

func main() {
	// Command line flags
	var (
		batchSize = flag.Int("batch-size", 100, "Number of jobs or organizations to process in a batch")
		dryRun    = flag.Bool("dry-run", false, "Print what would be done without making changes")
		timeout   = flag.Duration("timeout", 30*time.Minute, "Maximum time to run reconciliation")
		target    = flag.String("target", "all", "What to reconcile: all, deletions, relationships")
	)
	flag.Parse()

	// Initialize logger
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slogger := slog.New(logHandler)
	slog.SetDefault(slogger)

	switch *target {
	case "all", "deletions", "relationships":
	default:
		slogger.Error("unknown reconcile target", "target", *target)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	application, err := app.New(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	reconciler := application.Reconciler
	reconciler.SetBatchSize(*batchSize)
	reconciler.SetDryRun(*dryRun)

	var reconcileErr error
	if *target == "all" || *target == "deletions" {
		completed, err := reconciler.ReconcileDeletions(ctx)
		slogger.Info("deletion jobs reconciled", "completed", completed)
		reconcileErr = err
	}
	if reconcileErr == nil && (*target == "all" || *target == "relationships") {
		if application.EntitySync == nil {
			slogger.Info("relationships are stored in the database, nothing to sync", "authz", cfg.Authz.Mode)
		}
		reconcileErr = reconciler.ReconcileRelationships(ctx)
	}

	if err := application.Close(); err != nil {
		slogger.Warn("failed to release resources", "error", err)
	}

	if reconcileErr != nil {
		slogger.Error("reconciliation failed", "error", reconcileErr)
		os.Exit(1)
	}

	slogger.Info("reconciliation completed successfully")
}
