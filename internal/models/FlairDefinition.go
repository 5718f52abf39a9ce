package models

import "strings"

type Requirements struct {
	Trades      int      `json:"trades"`
	ShinyEvents int      `json:"shinyevents"`
	Eggs        int      `json:"eggs"`
	Involvement int      `json:"involvement"`
	Giveaways   int      `json:"giveaways"`
	EggChecks   int      `json:"eggchecks"`
	Requires    []string `json:"requires,omitempty"`
	ExcludedBy  []string `json:"excludedBy,omitempty"`
}

// Dominates reports whether every minimum count of r is at least the one of other.
func (r Requirements) Dominates(other Requirements) bool {
	return r.Trades >= other.Trades &&
		r.ShinyEvents >= other.ShinyEvents &&
		r.Eggs >= other.Eggs &&
		r.Involvement >= other.Involvement &&
		r.Giveaways >= other.Giveaways &&
		r.EggChecks >= other.EggChecks
}

type FlairDefinition struct {
	Name         string       `json:"name"`
	Subject      string       `json:"sub"`
	Display      string       `json:"display"`
	Requirements Requirements `json:"requirements"`
}

// FormattedName returns the display name, falling back to the capitalised flair name.
func (f *FlairDefinition) FormattedName() string {
	if f.Display != "" {
		return f.Display
	}
	if f.Name == "" {
		return ""
	}
	return strings.ToUpper(f.Name[:1]) + f.Name[1:]
}
