// Package flair holds the flair integrity engine: the free-text grammar,
// friend code checks, the style-class composer and the eligibility gate.
// Everything here is pure; persistence and platform calls live elsewhere.
package flair

import (
	"fmt"
	"regexp"
)

const (
	FieldTrades   = "ptrades"
	FieldExchange = "svex"
)

const (
	friendCodePattern = `[0-9]{4}-[0-9]{4}-[0-9]{4}`
	symbolPattern     = `(?:X|Y|ΩR|αS)`
	labelPattern      = `[^,|(]*(?: \(` + symbolPattern + `(?:, ` + symbolPattern + `)*\))?`
	tradesPattern     = friendCodePattern + `(?:, ` + friendCodePattern + `)* \|\| ` +
		labelPattern + `(?:, ` + labelPattern + `)*`
	exchangePattern = tradesPattern + ` \|\| (?:[0-9]{4}|XXXX)(?:, (?:[0-9]{4}|XXXX))*`
)

var (
	tradesRe     = regexp.MustCompile(`^` + tradesPattern + `$`)
	exchangeRe   = regexp.MustCompile(`^` + exchangePattern + `$`)
	friendCodeRe = regexp.MustCompile(friendCodePattern)
)

// FormatError reports which flair text failed the grammar.
type FormatError struct {
	Field string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s flair text does not match the expected format", e.Field)
}

type ParsedFlairs struct {
	Trades      string
	Exchange    string
	FriendCodes []string
}

// Validate checks both texts against their subject grammar. Both must pass;
// the first failure is returned and nothing is extracted.
func Validate(trades, exchange string) (*ParsedFlairs, error) {
	if !tradesRe.MatchString(trades) {
		return nil, &FormatError{Field: FieldTrades}
	}
	if !exchangeRe.MatchString(exchange) {
		return nil, &FormatError{Field: FieldExchange}
	}
	return &ParsedFlairs{
		Trades:      trades,
		Exchange:    exchange,
		FriendCodes: ExtractFriendCodes(trades, exchange),
	}, nil
}

// ExtractFriendCodes returns every friend code in the given texts in order of
// appearance, without duplicates.
func ExtractFriendCodes(texts ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, fc := range friendCodeRe.FindAllString(text, -1) {
			if _, ok := seen[fc]; ok {
				continue
			}
			seen[fc] = struct{}{}
			out = append(out, fc)
		}
	}
	return out
}
