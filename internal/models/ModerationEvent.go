package models

import "time"

type EventType string

const (
	EventFlairTextChange  EventType = "flairTextChange"
	EventFlairApplied     EventType = "flairApplied"
	EventFlairAppApproved EventType = "flairAppApproved"
	EventFlairAppDenied   EventType = "flairAppDenied"
)

// ModerationEvent is an append-only audit record. The most recent
// flairTextChange per user drives the text cooldown.
type ModerationEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
