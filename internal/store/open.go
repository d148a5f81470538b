package store

import (
	"context"
	"fmt"

	"github.com/chatreport/report-server/internal/config"
	"github.com/chatreport/report-server/internal/database"
	"go.uber.org/zap"
)

// Open connects the backend selected by cfg.StoreBackend and prepares its
// schema. The returned close function releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (Backend, func(), error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgresStore(pool, logger)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil

	case config.StoreMongo:
		client, err := database.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warnw("Mongo disconnect failed", "error", err)
			}
		}
		s := NewMongoStore(client.Database(cfg.MongoDatabase), logger)
		if err := s.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return s, closeFn, nil

	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
