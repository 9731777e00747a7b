// Command studylog runs the study plan server: spaced revision
// scheduling for topics, flashcard review, and plan statistics over a
// JSON API backed by SQLite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studylog/internal/config"
	"github.com/conorfennell/studylog/internal/importer"
	"github.com/conorfennell/studylog/internal/scheduler"
	"github.com/conorfennell/studylog/internal/service"
	"github.com/conorfennell/studylog/internal/storage"
	"github.com/conorfennell/studylog/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.Default()
	flags := pflag.NewFlagSet("studylog", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	flags.String("listen", defaults.Listen, "address to listen on")
	flags.String("db", defaults.DB, "path to the SQLite database")
	flags.String("repos", defaults.Repos, "directory for mirrored card repositories")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	sched := scheduler.New(
		scheduler.WithDayZero(cfg.Scheduler.DayZero),
		scheduler.WithDefaultOffsets(cfg.Scheduler.Offsets),
	)

	svc, err := service.New(context.Background(), db, sched,
		service.WithImporter(importer.New(cfg.Repos)))
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := web.NewServer(svc, cfg.CORS)
	slog.Info("starting server", "listen", cfg.Listen, "db", cfg.DB)
	if err := http.ListenAndServe(cfg.Listen, srv); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
