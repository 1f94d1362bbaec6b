package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emporia/internal/config"
	"emporia/internal/db"
	"emporia/internal/importer"
	"emporia/internal/logging"
	"emporia/internal/repository/category"
	"emporia/internal/repository/product"
)

func main() {
	var (
		filePath string
		sellerID int64
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,description,price,stock,category,seller_id,image)")
	flag.Int64Var(&sellerID, "seller", 0, "Seller ID for rows without seller_id")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg = lg.Named("importer")
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		lg.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		lg.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, lg), category.NewPostgres(pool), sellerID, lg)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		lg.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
