package journal

import (
	"fmt"

	"go.uber.org/zap"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/database"
	"trading-journal-go/internal/storage"
	"trading-journal-go/internal/storage/local"
	"trading-journal-go/internal/storage/remote"
)

// BackendKind names a persistence variant.
type BackendKind string

const (
	BackendLocal  BackendKind = "local"
	BackendRemote BackendKind = "remote"
)

// SelectBackend decides once, from configuration alone, which variant to use.
func SelectBackend(cfg *config.Config) BackendKind {
	if cfg.Remote.IsPlaceholder() {
		return BackendLocal
	}
	return BackendRemote
}

// Open builds the Service for the selected backend.
func Open(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	kind := SelectBackend(cfg)

	switch kind {
	case BackendRemote:
		client := remote.NewClient(&cfg.Remote, logger)
		backend := remote.NewBackend(client, storage.Options{}, logger)
		logger.Info("Remote document store selected", zap.String("project", cfg.Remote.ProjectID))
		return NewService(backend, kind, logger), nil

	default:
		db, err := database.NewDatabase(&cfg.Local)
		if err != nil {
			return nil, fmt.Errorf("could not open local store: %w", err)
		}
		backend := local.NewBackend(local.NewSQLiteKV(db), cfg.Local.Namespace, storage.Options{}, logger)
		logger.Info("Remote configuration is a placeholder, using local store",
			zap.String("dsn", cfg.Local.DSN),
			zap.String("namespace", cfg.Local.Namespace))

		svc := NewService(backend, kind, logger)
		svc.closer = func() error { return database.Close(db) }
		return svc, nil
	}
}
