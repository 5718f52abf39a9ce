package flair

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildReport_SingleInvalidCode(t *testing.T) {
	r := BuildReport(ReportInput{
		User:        "ash",
		Trades:      "1234-5678-9012 || Shiny",
		Exchange:    "1234-5678-9012 || Shiny || XXXX",
		TradesSub:   tradesSub,
		ExchangeSub: exchangeSub,
		TotalCodes:  1,
		Detection:   Detection{FlaggedInvalid: []string{"1234-5678-9012"}},
	})
	assert.Equal(t, "FlairHQ report: Invalid friend code", r.Subject)
	assert.Contains(t, r.Body, "The user /u/ash set a flair containing an invalid friend code.")
	assert.Contains(t, r.Body, "/u/ash 1234-5678-9012 || Shiny (/r/pokemontrades)")
	assert.NotContains(t, r.Body, "The following friend code")
	assert.Equal(t, "Invalid friend code: 1234-5678-9012", r.Note)
}

func TestBuildReport_ListsInvalidCodesWhenSomeAreValid(t *testing.T) {
	r := BuildReport(ReportInput{
		User:       "ash",
		TotalCodes: 3,
		Detection:  Detection{FlaggedInvalid: []string{"1111-1111-1111", "2222-2222-2222"}},
	})
	assert.Equal(t, "FlairHQ report: Invalid friend codes", r.Subject)
	assert.Contains(t, r.Body, "2 invalid friend codes")
	assert.Contains(t, r.Body, "The following friend codes are invalid:")
	assert.Equal(t, "Invalid friend codes: 1111-1111-1111,2222-2222-2222", r.Note)
}

func TestBuildReport_BannedMatchesAndAlts(t *testing.T) {
	r := BuildReport(ReportInput{
		User: "ash",
		Detection: Detection{
			IdenticalToBanned: []string{"1234-5678-9012"},
			SimilarToBanned:   []string{"1234-5678-9013"},
			BannedAltUsers:    []string{"badguy"},
			Matches: []BanMatch{
				{Code: "1234-5678-9012", BannedCode: "1234-5678-9012", BannedUser: "badguy"},
				{Code: "1234-5678-9013", BannedCode: "1234-5678-9012", BannedUser: "badguy", Distance: 1},
			},
		},
	})
	assert.Equal(t, "FlairHQ report: Banned friend code, Possible alt account", r.Subject)
	assert.Contains(t, r.Body, "1234-5678-9013 ~ 1234-5678-9012 (/u/badguy, distance 1)")
	assert.Contains(t, r.Note, "Banned friend code: 1234-5678-9012 (/u/badguy)")
	assert.Contains(t, r.Note, "Similar to banned friend code: 1234-5678-9013 (/u/badguy)")
	assert.Contains(t, r.Note, "Shares IP with banned user: badguy")
}
