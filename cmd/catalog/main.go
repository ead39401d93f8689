package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

func main() {
	service := "catalog"
	cfg := config.Load()

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, closeStore := openStore(ctx, cfg.Store, log, reg)
	defer closeStore()

	s := &catalog.Server{Store: store, Log: log}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:             log,
		Service:         service,
		Registry:        reg,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsToken:    cfg.Metrics.Token,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Server.Port, h, log, cfg.Server.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
	log.Info("http server stopped")
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger, reg prometheus.Registerer) (catalog.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Info("using file store", zap.String("path", cfg.FilePath))
		return catalog.NewFileStore(cfg.FilePath, log, catalog.NewStoreMetrics(reg)), func() {}
	}

	db, err := catalog.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open postgres failed", zap.Error(err))
	}

	store := catalog.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		log.Fatal("ensure schema failed", zap.Error(err))
	}

	log.Info("using postgres store")
	return store, func() { _ = db.Close() }
}
