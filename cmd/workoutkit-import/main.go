package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/workoutkit/internal/config"
	"github.com/claude/workoutkit/internal/importer"
	"github.com/claude/workoutkit/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("migrations", storage.DefaultMigrationsDir, "path to migration files")
	autoSyncPath := flag.String("path", "", "path to AutoSync directory (required)")
	origin := flag.String("origin", importer.DefaultOrigin, "data origin recorded on imported workouts")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *autoSyncPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: workoutkit-import -config config.yaml -path /path/to/AutoSync [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*autoSyncPath)
	if err != nil || !info.IsDir() {
		log.Error("AutoSync path does not exist or is not a directory", "path", *autoSyncPath)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, *migrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Info("dry run: nothing will be written")
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	imp := importer.New(db, log, *dryRun, importer.WithOrigin(*origin))
	stats, err := imp.Import(ctx, *autoSyncPath)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"workouts_inserted", stats.WorkoutsInserted,
		"workouts_skipped", stats.WorkoutsSkipped,
		"workouts_rejected", stats.WorkoutsRejected,
	)
	if stats.Message != "" {
		log.Info(stats.Message)
	}
}
