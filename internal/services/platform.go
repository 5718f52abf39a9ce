package services

import (
	"context"
	"flairhq/internal/models"
)

// Platform is the outbound side of the discussion platform.
type Platform interface {
	SetFlair(ctx context.Context, cred models.Credential, user, cssClass, text, subject string) error
	GetFlair(ctx context.Context, cred models.Credential, user, subject string) (models.FlairState, bool, error)
	SendPrivateMessage(ctx context.Context, cred models.Credential, subject, body, recipient string) error
	AddUsernote(ctx context.Context, cred models.Credential, note models.Usernote) error
}
