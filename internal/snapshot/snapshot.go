// Package snapshot provides the durable local record holding the in-progress inspection.
package snapshot

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
)

// Store is a single keyed record. Load returns common.ErrNotFound when nothing was saved.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg common.SnapshotConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path, cfg.Key)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL, cfg.Key, 0)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q: %w", cfg.Backend, common.ErrInvalidInput)
	}
}
