package cmd

import (
	"context"
	"fmt"

	"github.com/Beastly713/quorum/pkg/chat"
	"github.com/Beastly713/quorum/pkg/config"
	"github.com/Beastly713/quorum/pkg/storage"
	"github.com/Beastly713/quorum/pkg/storage/file"
	"github.com/Beastly713/quorum/pkg/storage/memory"
	"github.com/Beastly713/quorum/pkg/storage/postgres"
)

// openStore opens the message store selected by cfg.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverFile:
		return file.New(cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.Postgres.ConnectionString())
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// openChat opens the configured store and wraps it in a chat service. The
// caller closes the returned store.
func openChat(ctx context.Context) (*chat.Service, storage.Store, error) {
	store, err := openStore(ctx, appConfig.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", appConfig.Storage.Driver, err)
	}

	svc := chat.NewService(store, chat.Config{PadLength: appConfig.Sharing.PadLength}, logger)
	return svc, store, nil
}
