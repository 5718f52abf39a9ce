package storage

import (
	"context"
	"flairhq/internal/structures"
	"fmt"
)

// NewEventStore picks the moderation log backend. The SQLite store doubles
// as the event store unless events are routed to MongoDB.
func NewEventStore(ctx context.Context, conf structures.EventStoreConfig, db *SQLiteStore) (EventStoreInterface, func(), error) {
	switch conf.Driver {
	case "", "sqlite":
		return db, func() {}, nil
	case "mongo":
		store, err := NewMongoEventStore(ctx, conf.MongoURI, conf.Database)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown event store driver %q", conf.Driver)
	}
}
