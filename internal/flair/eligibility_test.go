package flair

import (
	"flairhq/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	pokeball  = models.FlairDefinition{Name: "pokeball", Subject: tradesSub, Requirements: models.Requirements{Trades: 10}}
	greatball = models.FlairDefinition{Name: "greatball", Subject: tradesSub, Requirements: models.Requirements{Trades: 20}}
	ultraball = models.FlairDefinition{Name: "ultraball", Subject: tradesSub, Requirements: models.Requirements{Trades: 30}}
	gsribbon  = models.FlairDefinition{
		Name: "gsribbon", Subject: tradesSub,
		Requirements: models.Requirements{ShinyEvents: 2, Requires: []string{"pokeball"}},
	}
	lucky = models.FlairDefinition{
		Name: "lucky", Subject: exchangeSub,
		Requirements: models.Requirements{Eggs: 5, ExcludedBy: []string{"banned_hatcher"}},
	}
	involvement = models.FlairDefinition{Name: "involvement", Subject: tradesSub, Requirements: models.Requirements{Involvement: 1}}
)

func refs(t models.ReferenceType, n int, approved bool) []models.Reference {
	out := make([]models.Reference, n)
	for i := range out {
		out[i] = models.Reference{User: "ash", Type: t, Approved: approved}
	}
	return out
}

func TestCanApply_MinimumReferenceCount(t *testing.T) {
	assert.False(t, CanApply(refs(models.RefCasual, 19, true), &greatball, nil))
	assert.True(t, CanApply(refs(models.RefCasual, 20, true), &greatball, nil))
	assert.True(t, CanApply(refs(models.RefCasual, 21, true), &greatball, nil))
}

func TestCanApply_IgnoresUnapprovedReferences(t *testing.T) {
	all := append(refs(models.RefCasual, 10, true), refs(models.RefCasual, 10, false)...)
	assert.False(t, CanApply(all, &greatball, nil))
}

func TestCanApply_AlreadyHeldOrDominated(t *testing.T) {
	r := refs(models.RefEvent, 40, true)
	assert.False(t, CanApply(r, &greatball, []models.FlairDefinition{greatball}))
	assert.False(t, CanApply(r, &greatball, []models.FlairDefinition{ultraball}))
	assert.True(t, CanApply(r, &ultraball, []models.FlairDefinition{greatball}))
}

func TestCanApply_RequiresHeldFlair(t *testing.T) {
	r := refs(models.RefShiny, 15, true)
	assert.False(t, CanApply(r, &gsribbon, nil))
	assert.True(t, CanApply(r, &gsribbon, []models.FlairDefinition{pokeball}))
}

func TestCanApply_Exclusivity(t *testing.T) {
	r := refs(models.RefEgg, 5, true)
	banned := models.FlairDefinition{Name: "banned_hatcher", Subject: exchangeSub}
	assert.True(t, CanApply(r, &lucky, nil))
	assert.False(t, CanApply(r, &lucky, []models.FlairDefinition{banned}))
}

func TestCanApply_OtherSubjectDoesNotDominate(t *testing.T) {
	r := refs(models.RefCasual, 10, true)
	other := models.FlairDefinition{Name: "egg", Subject: exchangeSub, Requirements: models.Requirements{Trades: 50}}
	assert.True(t, CanApply(r, &pokeball, []models.FlairDefinition{other}))
}

func TestCanApply_NilTarget(t *testing.T) {
	assert.False(t, CanApply(nil, nil, nil))
}

func TestCountReferences(t *testing.T) {
	var all []models.Reference
	all = append(all, refs(models.RefEvent, 2, true)...)
	all = append(all, refs(models.RefShiny, 1, true)...)
	all = append(all, refs(models.RefCasual, 3, true)...)
	all = append(all, refs(models.RefEgg, 4, true)...)
	all = append(all, refs(models.RefGiveaway, 1, true)...)
	all = append(all, refs(models.RefEggCheck, 2, true)...)
	all = append(all, refs(models.RefInvolvement, 1, true)...)
	all = append(all, refs(models.RefMisc, 7, true)...)

	assert.Equal(t, Counts{Trades: 6, ShinyEvents: 3, Eggs: 4, Involvement: 1, Giveaways: 1, EggChecks: 2}, CountReferences(all))
}

func TestCurrentFlairs(t *testing.T) {
	defs := []models.FlairDefinition{pokeball, greatball, gsribbon, lucky, involvement}
	user := &models.User{Name: "ash"}
	user.SetFlair(tradesSub, models.FlairState{CSSClass: "greatball1 gsribbon"})
	user.SetFlair(exchangeSub, models.FlairState{CSSClass: "lucky2"})

	var names []string
	for _, f := range CurrentFlairs(defs, user) {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"greatball", "gsribbon", "lucky", "involvement"}, names)
}

func TestCurrentFlairs_NoState(t *testing.T) {
	assert.Empty(t, CurrentFlairs([]models.FlairDefinition{pokeball}, &models.User{Name: "ash"}))
}
