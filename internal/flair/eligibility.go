package flair

import (
	"flairhq/internal/models"
	"slices"
	"strings"
)

// Counts tallies approved references per requirement category.
type Counts struct {
	Trades      int
	ShinyEvents int
	Eggs        int
	Involvement int
	Giveaways   int
	EggChecks   int
}

func CountReferences(refs []models.Reference) Counts {
	var c Counts
	for _, ref := range refs {
		if !ref.Approved {
			continue
		}
		switch ref.Type {
		case models.RefEvent, models.RefShiny:
			c.Trades++
			c.ShinyEvents++
		case models.RefCasual:
			c.Trades++
		case models.RefEgg:
			c.Eggs++
		case models.RefGiveaway:
			c.Giveaways++
		case models.RefEggCheck:
			c.EggChecks++
		case models.RefInvolvement:
			c.Involvement++
		}
	}
	return c
}

func (c Counts) meets(r models.Requirements) bool {
	return c.Trades >= r.Trades &&
		c.ShinyEvents >= r.ShinyEvents &&
		c.Eggs >= r.Eggs &&
		c.Involvement >= r.Involvement &&
		c.Giveaways >= r.Giveaways &&
		c.EggChecks >= r.EggChecks
}

// CanApply is the eligibility gate. It fails closed: a nil target is rejected.
func CanApply(refs []models.Reference, target *models.FlairDefinition, current []models.FlairDefinition) bool {
	if target == nil {
		return false
	}
	req := target.Requirements
	held := make(map[string]struct{}, len(current))
	for _, f := range current {
		held[f.Name] = struct{}{}
		if f.Name == target.Name {
			return false
		}
		if f.Subject == target.Subject && f.Name != InvolvementBadge && target.Name != InvolvementBadge &&
			f.Requirements.Dominates(req) {
			return false
		}
	}
	for _, name := range req.Requires {
		if _, ok := held[name]; !ok {
			return false
		}
	}
	for _, name := range req.ExcludedBy {
		if _, ok := held[name]; ok {
			return false
		}
	}
	return CountReferences(refs).meets(req)
}

// CurrentFlairs returns the definitions the user holds, judged by the tokens of
// the style class stored for each definition's subject.
func CurrentFlairs(defs []models.FlairDefinition, user *models.User) []models.FlairDefinition {
	var out []models.FlairDefinition
	for _, def := range defs {
		st, ok := user.FlairFor(def.Subject)
		if !ok {
			continue
		}
		if def.Name == InvolvementBadge {
			if groups := strings.Fields(st.CSSClass); len(groups) > 0 && hasSuffixDigit(groups[0], '1') {
				out = append(out, def)
			}
			continue
		}
		if slices.Contains(classTokens(st.CSSClass), def.Name) {
			out = append(out, def)
		}
	}
	return out
}

// classTokens strips tier suffixes from each group of a style class.
func classTokens(class string) []string {
	groups := strings.Fields(class)
	for i, g := range groups {
		groups[i] = strings.TrimRight(g, "0123456789")
	}
	return groups
}
