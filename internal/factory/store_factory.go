package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/adapters/store"
	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
)

// StoreFactory creates ticket stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTicketStore creates a ticket store based on the configuration
func (f *StoreFactory) CreateTicketStore() (core.TicketStore, error) {
	storeType := f.cfg.GetString("store.type")
	cleanupFreq, err := f.cfg.GetDuration("store.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid store cleanup frequency: %w", err)
	}
	dedupeTTL, err := f.cfg.GetDuration("store.dedupe_ttl")
	if err != nil {
		return nil, fmt.Errorf("invalid store dedupe TTL: %w", err)
	}

	switch storeType {
	case "memory":
		return store.NewMemoryStore(f.logger, dedupeTTL, cleanupFreq), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("store.sqlite_path")
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(sqlitePath, f.logger, dedupeTTL, cleanupFreq)
	case "mysql":
		mysqlDSN := f.cfg.GetString("store.mysql_dsn")
		return store.NewMySQLStore(mysqlDSN, f.logger, dedupeTTL, cleanupFreq)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
