package main

import (
	"fmt"

	"github.com/arborflow/arbor/pkg/adapters/file"
	"github.com/arborflow/arbor/pkg/adapters/memory"
	redisstore "github.com/arborflow/arbor/pkg/adapters/redis"
	"github.com/arborflow/arbor/pkg/ports"
	"github.com/spf13/cobra"
)

type sessionStore = ports.ContextStore

// addStoreFlags registers the session-store selection flags shared by the
// commands that read or write persisted sessions.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "file", "Session store backend: memory, file or redis")
	cmd.Flags().String("store-path", "", "Base directory for the file store (default .arbor/sessions)")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database number")
}

// storeFromFlags builds the selected store. The returned func releases any
// backing connection and is always safe to call.
func storeFromFlags(cmd *cobra.Command) (sessionStore, func(), error) {
	kind, _ := cmd.Flags().GetString("store")
	noop := func() {}

	switch kind {
	case "memory":
		return memory.NewStore(), noop, nil

	case "file":
		path, _ := cmd.Flags().GetString("store-path")
		return file.NewStore(path), noop, nil

	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		store := redisstore.New(addr, password, db)
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store %q (want memory, file or redis)", kind)
	}
}
