package di

import (
	"context"
	"flairhq/internal/audit"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/storage"
	"flairhq/internal/structures"
	"fmt"
)

func ProvideLogger(conf *structures.Config) (providers.Logger, func(), error) {
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}

func ProvideSQLiteStore(conf *structures.Config, logger providers.Logger) (*storage.SQLiteStore, func(), error) {
	store, err := storage.NewSQLiteStore(context.Background(), conf.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", conf.Storage.Path, err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Errorf(providers.TypeApp, "Close store: %s", err)
		}
	}
	return store, cleanup, nil
}

func ProvideEventStore(conf *structures.Config, db *storage.SQLiteStore) (storage.EventStoreInterface, func(), error) {
	return storage.NewEventStore(context.Background(), conf.Storage.Events, db)
}

// ProvideFlairStore fronts the definition table with the response cache.
func ProvideFlairStore(db *storage.SQLiteStore, cache providers.CacheProviderInterface, logger providers.Logger) storage.FlairStoreInterface {
	return storage.NewCachedFlairStore(db, cache, logger)
}

func ProvideCredential(conf *structures.Config) models.Credential {
	return models.Credential{RefreshToken: conf.Reddit.AdminRefreshToken}
}

func ProvideAuditWriter(conf *structures.Config, store storage.EventStoreInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) (*audit.Writer, func()) {
	w := audit.NewWriter(conf, store, logger, metrics)
	return w, w.Close
}

func ProvideCompressor() (interfaces.CompressorInterface, func(), error) {
	c, err := audit.NewZstdCompressor()
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
