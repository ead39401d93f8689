package catalog

import "context"

// Store owns the product collection. Every mutating call is durable (or
// reported as not yet durable through Ping) before it returns.
type Store interface {
	// Ping reports whether the store can serve and persist requests.
	Ping(ctx context.Context) error

	// List returns all products in insertion order.
	List(ctx context.Context) ([]Product, error)

	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, np NewProduct) (Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	Delete(ctx context.Context, id int64) error
}
