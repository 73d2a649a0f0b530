// Package datastore persists hypotheses, variables and data points.
package datastore

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
)

// StoreManager holds the process-wide store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.Store
}

// GetStore returns the initialized store, or nil before InitStore.
func (mgr *StoreManager) GetStore() contract.Store {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file.
func GetDBFilePath() string {
	return contract.GetDBFilePath()
}

// NewStore opens a store for the backend.
func NewStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) (contract.Store, error) {
	switch backend {
	case schema.MemoryBackend:
		return NewMemoryStore(), nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
		return NewSQLStore(ctx, backend, connStr)
	default:
		return nil, fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or memory", backend)
	}
}

// InitStore initializes the global manager. Later calls are no-ops.
func InitStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		store, err := NewStore(ctx, backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize %s store: %w", backend, err)
			return
		}
		Manager.Lock()
		Manager.store = store
		Manager.Unlock()
	})
	return initErr
}

// CloseStore should be called on application shutdown.
func CloseStore() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.store != nil {
			if err := Manager.store.Close(); err != nil {
				contract.LogWarn("Failed to close store", err)
			}
		}
	})
}
