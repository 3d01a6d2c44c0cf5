package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/okotelnikov/vpsshop-backend/internal/catalog"
	"github.com/okotelnikov/vpsshop-backend/pkg/config"
	"github.com/okotelnikov/vpsshop-backend/pkg/db"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	inserted, err := catalog.NewRepository(dbClient.DB()).SeedIfEmpty(ctx, catalog.PresetTariffs)
	if err != nil {
		logg.Error(ctx, "failed to seed tariff catalog", err)
		os.Exit(1)
	}
	if inserted == 0 {
		logg.Info(ctx, "tariff catalog already populated, nothing to do")
		return
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"inserted": inserted}), "tariff catalog seeded")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
