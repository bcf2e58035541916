package inventory

import (
	"context"
	"time"

	"github.com/altastore/stock-service/internal/model"
)

// Locker is the distributed-lock surface of the Redis client.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// CatalogSyncer receives inventory-side changes for projection onto the
// catalog stock mirror. Implementations must swallow their own failures; an
// inventory mutation never fails because the projection did.
type CatalogSyncer interface {
	InventoryChanged(ctx context.Context, rec *model.InventoryRecord)
}
