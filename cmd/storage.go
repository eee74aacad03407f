package cmd

import (
	"context"
	"fmt"

	"github.com/chatrelay/chat-relay/config"
	"github.com/chatrelay/chat-relay/internal/plugin"
	"github.com/chatrelay/chat-relay/internal/storage"
	"github.com/chatrelay/chat-relay/internal/storage/memory"
	"github.com/chatrelay/chat-relay/internal/storage/postgres"
	"github.com/chatrelay/chat-relay/internal/storage/sqlite"
)

// openBackend resolves cfg.StorageLibrary into a running storage.Backend:
// the three built-in schemes ("memory", "sqlite:<path>",
// "postgres:<dsn>"), or a dynamically loaded plugin .so per spec.md §6's
// ABI for anything else.
func openBackend(ctx context.Context, cfg config.Storage) (storage.Backend, error) {
	scheme, rest, ok := storage.ParseBuiltinScheme(cfg.StorageLibrary)
	if !ok {
		loaded, err := plugin.Load(cfg.StorageLibrary, cfg.StorageConfig)
		if err != nil {
			return nil, fmt.Errorf("cmd: load storage plugin: %w", err)
		}
		return loaded.Backend, nil
	}

	switch scheme {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(rest)
	case "postgres":
		return postgres.Open(ctx, rest)
	default:
		return nil, storage.ErrUnknownScheme(cfg.StorageLibrary)
	}
}

// portAddr formats a TCP listen address for port, binding every
// interface the way spec.md §6's "port" setting expects.
func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
