package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"emporia/internal/config"
	"emporia/internal/db"
	"emporia/internal/logging"
	"emporia/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "revert the most recent migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg = lg.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		lg.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down {
		if err := migrate.Rollback(ctx, pool); err != nil {
			lg.Fatal("rollback migration", zap.Error(err))
		}
		lg.Info("last migration reverted")
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		lg.Fatal("apply migrations", zap.Error(err))
	}
	lg.Info("migrations applied")
}
