package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"emporia/internal/config"
	"emporia/internal/db"
	"emporia/internal/events"
	"emporia/internal/httpserver"
	"emporia/internal/logging"
	"emporia/internal/metrics"
	"emporia/internal/observability"
	"emporia/internal/payment"
	cartrepo "emporia/internal/repository/cart"
	categoryrepo "emporia/internal/repository/category"
	orderrepo "emporia/internal/repository/order"
	productrepo "emporia/internal/repository/product"
	tokenrepo "emporia/internal/repository/token"
	userrepo "emporia/internal/repository/user"
	cartsvc "emporia/internal/service/cart"
	categorysvc "emporia/internal/service/category"
	ordersvc "emporia/internal/service/order"
	productsvc "emporia/internal/service/product"
	usersvc "emporia/internal/service/user"
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

	if err := run(cfg, lg.Named("api")); err != nil {
		lg.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, lg *zap.Logger) error {
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	tp, shutdownTracing, err := observability.Init(ctx, cfg.Tracing, lg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			lg.Warn("flush traces", zap.Error(err))
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		lg.Info("order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			lg.Warn("close event publisher", zap.Error(err))
		}
	}()

	m := metrics.New()

	productRepo := productrepo.NewPostgres(dbpool, lg)
	orderRepo := orderrepo.NewPostgres(dbpool, lg)
	gateway := payment.NewSimulated(lg, cfg.Payment.DeclinedMethods...)

	orders := ordersvc.NewTraced(
		ordersvc.New(orderRepo, productRepo, gateway,
			ordersvc.WithLogger(lg.Named("orders")),
			ordersvc.WithPublisher(publisher),
		),
		tp, m,
	)

	srv, err := httpserver.New(cfg.Addr, lg.Named("http"), dbpool, httpserver.Deps{
		Users:          usersvc.New(userrepo.NewPostgres(dbpool, lg), tokenrepo.NewPostgres(dbpool), cfg.Auth.TokenTTL, lg.Named("users")),
		Products:       productsvc.New(productRepo, lg.Named("products")),
		Categories:     categorysvc.New(categoryrepo.NewPostgres(dbpool)),
		Carts:          cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo, lg.Named("carts")),
		Orders:         orders,
		Metrics:        m,
		TracerProvider: tp,
		ServiceName:    cfg.Tracing.ServiceName,
		CORSOrigins:    cfg.CORS.Origins,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	lg.Info("server stopped")
	return nil
}
