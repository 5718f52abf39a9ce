package flair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validTrades   = "1234-5678-9012 || Shiny (X, Y)"
	validExchange = "1234-5678-9012 || Shiny (X, Y) || 1234, XXXX"
)

func TestValidate_AcceptsWellFormedTexts(t *testing.T) {
	cases := []struct {
		name     string
		trades   string
		exchange string
	}{
		{"single code", validTrades, validExchange},
		{"several codes and labels", "1234-5678-9012, 1111-2222-3333 || Alice (ΩR), Bob", "1111-2222-3333 || Bob (αS, X) || XXXX"},
		{"label without symbols", "0000-0000-0001 || Ash", "0000-0000-0001 || Ash || 2016"},
		{"empty label", "1234-5678-9012 || ", "1234-5678-9012 ||  || XXXX"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Validate(tc.trades, tc.exchange)
			require.NoError(t, err)
			assert.Equal(t, tc.trades, parsed.Trades)
			assert.Equal(t, tc.exchange, parsed.Exchange)
			assert.NotEmpty(t, parsed.FriendCodes)
		})
	}
}

func TestValidate_RejectsMissingSeparator(t *testing.T) {
	_, err := Validate("1234-5678-9012 Shiny (X)", validExchange)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldTrades, fe.Field)
}

func TestValidate_RejectsUnknownSymbol(t *testing.T) {
	_, err := Validate("1234-5678-9012 || Shiny (Z)", validExchange)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldTrades, fe.Field)

	_, err = Validate(validTrades, "1234-5678-9012 || Shiny (X, Q) || XXXX")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldExchange, fe.Field)
}

func TestValidate_RejectsBadExchangeYears(t *testing.T) {
	for _, exchange := range []string{
		"1234-5678-9012 || Shiny",
		"1234-5678-9012 || Shiny || 123",
		"1234-5678-9012 || Shiny || XXX",
		"1234-5678-9012 || Shiny || 2016,2017",
	} {
		_, err := Validate(validTrades, exchange)
		var fe *FormatError
		require.ErrorAs(t, err, &fe, exchange)
		assert.Equal(t, FieldExchange, fe.Field)
	}
}

func TestValidate_RejectsMalformedFriendCodes(t *testing.T) {
	for _, trades := range []string{
		"123-5678-9012 || Shiny",
		"1234-5678-90123 || Shiny",
		"1234 5678 9012 || Shiny",
		"|| Shiny",
		"",
	} {
		_, err := Validate(trades, validExchange)
		assert.Error(t, err, trades)
	}
}

func TestValidate_IsAnchored(t *testing.T) {
	_, err := Validate("junk 1234-5678-9012 || Shiny", validExchange)
	assert.Error(t, err)
	_, err = Validate("1234-5678-9012 || Shiny (X) || trailing", validExchange)
	assert.Error(t, err)
}

func TestFormatError_Message(t *testing.T) {
	err := &FormatError{Field: FieldExchange}
	assert.Equal(t, "svex flair text does not match the expected format", err.Error())
}

func TestValidate_ExtractsFriendCodesInOrder(t *testing.T) {
	parsed, err := Validate(
		"1234-5678-9012, 1111-2222-3333 || A",
		"1111-2222-3333, 4444-5555-6666 || B || XXXX",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"1234-5678-9012", "1111-2222-3333", "4444-5555-6666"}, parsed.FriendCodes)
}

func TestExtractFriendCodes_Empty(t *testing.T) {
	assert.Nil(t, ExtractFriendCodes("no codes here", ""))
}
