package models

import "time"

type ReferenceType string

const (
	RefEvent       ReferenceType = "event"
	RefShiny       ReferenceType = "shiny"
	RefCasual      ReferenceType = "casual"
	RefEgg         ReferenceType = "egg"
	RefGiveaway    ReferenceType = "giveaway"
	RefEggCheck    ReferenceType = "eggcheck"
	RefInvolvement ReferenceType = "involvement"
	RefMisc        ReferenceType = "misc"
)

// Reference is a trade or service endorsement logged by a user.
type Reference struct {
	ID        int64         `json:"id"`
	User      string        `json:"user"`
	Type      ReferenceType `json:"type"`
	URL       string        `json:"url"`
	Approved  bool          `json:"approved"`
	CreatedAt time.Time     `json:"createdAt"`
}
