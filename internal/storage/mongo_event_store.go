package storage

import (
	"context"
	"errors"
	"flairhq/internal/models"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type eventDocument struct {
	ID        string    `bson:"_id"`
	Type      string    `bson:"type"`
	User      string    `bson:"user"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoEventStore keeps the moderation log in a MongoDB collection.
type MongoEventStore struct {
	client *mongo.Client
	col    *mongo.Collection
	now    func() time.Time
}

func NewMongoEventStore(ctx context.Context, mongoURI, dbName string) (*MongoEventStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if dbName == "" {
		dbName = "flairhq"
	}
	col := client.Database(dbName).Collection("events")

	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}, {Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create event index: %w", err)
	}

	return &MongoEventStore{client: client, col: col, now: time.Now}, nil
}

func (s *MongoEventStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoEventStore) CreateEvents(ctx context.Context, events ...models.ModerationEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = s.now()
		}
		docs = append(docs, eventDocument{
			ID:        ev.ID,
			Type:      string(ev.Type),
			User:      ev.User,
			Content:   ev.Content,
			CreatedAt: ev.CreatedAt.UTC(),
		})
	}
	if _, err := s.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("create events: %w", err)
	}
	return nil
}

func (s *MongoEventStore) LatestEvent(ctx context.Context, eventType models.EventType, user string) (*models.ModerationEvent, error) {
	var doc eventDocument
	err := s.col.FindOne(ctx,
		bson.M{"type": string(eventType), "user": user},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s event of %s: %w", eventType, user, err)
	}
	ev := doc.toModel()
	return &ev, nil
}

func (s *MongoEventStore) FindEventsByContent(ctx context.Context, substr string) ([]models.ModerationEvent, error) {
	return s.find(ctx, bson.M{"content": bson.M{"$regex": regexp.QuoteMeta(substr)}})
}

func (s *MongoEventStore) ListEvents(ctx context.Context) ([]models.ModerationEvent, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoEventStore) CountEvents(ctx context.Context) (int, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(n), nil
}

func (s *MongoEventStore) find(ctx context.Context, filter bson.M) ([]models.ModerationEvent, error) {
	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	events := make([]models.ModerationEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toModel())
	}
	return events, nil
}

func (d eventDocument) toModel() models.ModerationEvent {
	return models.ModerationEvent{
		ID:        d.ID,
		Type:      models.EventType(d.Type),
		User:      d.User,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
