package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"emporia/internal/config"
	"emporia/internal/db"
	"emporia/internal/logging"
	"emporia/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg = lg.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		lg.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, lg); err != nil {
		lg.Fatal("seed apply", zap.Error(err))
	}
}
