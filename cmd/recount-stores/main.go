// Command recount-stores refreshes the denormalized deal counts on stores
// and categories.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

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
		slog.Error("Recount failed", "error", err)
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

	res, err := backfill.Recount(ctx, store, time.Now())
	slog.Info("Recount finished", "storesChanged", res.StoresChanged, "categoriesChanged", res.CategoriesChanged)
	return err
}
