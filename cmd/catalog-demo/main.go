// Command catalog-demo walks a file-backed catalog through create, duplicate
// create, lookup, update and delete, logging each outcome.
package main

import (
	"context"

	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

func main() {
	cfg := config.Load()

	log := kit.NewLogger("catalog-demo", cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	store := catalog.NewFileStore(cfg.Store.FilePath, log, nil)

	logProducts(ctx, log, store)

	sample := catalog.NewProduct{
		Title:       "producto prueba",
		Description: "Este es un producto prueba",
		Price:       catalog.NumberFromInt(200),
		Thumbnail:   "Sin imagen",
		Code:        "abc123",
		Stock:       catalog.NumberFromInt(25),
	}

	created, err := store.Create(ctx, sample)
	if err != nil {
		log.Error("create failed", zap.Error(err))
	} else {
		log.Info("created", zap.Any("product", created))
	}
	logProducts(ctx, log, store)

	if _, err := store.Create(ctx, sample); err != nil {
		log.Info("second create rejected", zap.Error(err))
	}

	if p, err := store.Get(ctx, created.ID); err != nil {
		log.Error("get failed", zap.Error(err))
	} else {
		log.Info("found", zap.Any("product", p))
	}

	if _, err := store.Get(ctx, 999); err != nil {
		log.Info("get unknown id rejected", zap.Int64("id", 999), zap.Error(err))
	}

	price := catalog.NumberFromInt(250)
	if p, err := store.Update(ctx, created.ID, catalog.ProductPatch{Price: &price}); err != nil {
		log.Error("update failed", zap.Error(err))
	} else {
		log.Info("updated", zap.Any("product", p))
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		log.Error("delete failed", zap.Error(err))
	}
	logProducts(ctx, log, store)

	if err := store.Ping(ctx); err != nil {
		log.Warn("product file is behind memory", zap.Error(err))
	}
}

func logProducts(ctx context.Context, log *zap.Logger, store catalog.Store) {
	products, err := store.List(ctx)
	if err != nil {
		log.Error("list failed", zap.Error(err))
		return
	}
	log.Info("products", zap.Int("count", len(products)), zap.Any("products", products))
}
