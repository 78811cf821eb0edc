// Command backfill-slugs writes a slug on every deal that lacks one.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pauljones0/dealboard/internal/backfill"
	"github.com/pauljones0/dealboard/internal/config"
	"github.com/pauljones0/dealboard/internal/logger"
	"github.com/pauljones0/dealboard/internal/storage"
)

func main() {
	config.LoadDotEnv()
	logCfg := config.Logging()
	logger.Setup(logger.Options{Level: logCfg.Level, Format: logCfg.Format})

	if err := run(context.Background()); err != nil {
		slog.Error("Slug backfill failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := storage.New(ctx, cfg.ProjectID, cfg.ServiceAccountJSON)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := backfill.Slugs(ctx, store)
	slog.Info("Slug backfill finished", "total", res.Total, "updated", res.Updated, "skipped", res.Skipped)
	return err
}
