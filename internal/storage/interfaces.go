// Package storage holds the persistence collaborators of the flair engine:
// flair definitions, references, users, pending applications and the
// moderation event log.
package storage

import (
	"context"
	"errors"
	"flairhq/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type FlairStoreInterface interface {
	GetFlair(ctx context.Context, name string) (*models.FlairDefinition, error)
	ListFlairs(ctx context.Context) ([]models.FlairDefinition, error)
	PutFlairs(ctx context.Context, defs []models.FlairDefinition) error
}

type ReferenceStoreInterface interface {
	ListReferences(ctx context.Context, user string) ([]models.Reference, error)
	AddReference(ctx context.Context, ref *models.Reference) error
}

// UserStoreInterface creates users on first write.
type UserStoreInterface interface {
	GetUser(ctx context.Context, name string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	SetFlairState(ctx context.Context, name, subject string, state models.FlairState) error
	SetLoggedFriendCodes(ctx context.Context, name string, codes []string) error
	ListBannedUsers(ctx context.Context) ([]models.BannedUser, error)
}

// ApplicationStoreInterface keeps at most one application per (user, flair, subject).
// CreateApplication returns ErrDuplicate when that key is taken.
type ApplicationStoreInterface interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	FindApplication(ctx context.Context, user, flair, subject string) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	DeleteApplication(ctx context.Context, id string) error
}

// EventStoreInterface is the append-only moderation log.
type EventStoreInterface interface {
	CreateEvents(ctx context.Context, events ...models.ModerationEvent) error
	LatestEvent(ctx context.Context, eventType models.EventType, user string) (*models.ModerationEvent, error)
	FindEventsByContent(ctx context.Context, substr string) ([]models.ModerationEvent, error)
	ListEvents(ctx context.Context) ([]models.ModerationEvent, error)
	CountEvents(ctx context.Context) (int, error)
}
