package main

import (
	"bytes"
	"encoding/json"
	"flairhq/internal/flair"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckCmd_Valid(t *testing.T) {
	out, err := runRoot(t, "check",
		"--ptrades", "1234-5678-9012 || Shiny (X, Y)",
		"--svex", "1234-5678-9012, 1111-2222-3333 || Shiny || 0042")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"1234-5678-9012", "1111-2222-3333"}, res.FriendCodes)
	assert.Empty(t, res.Invalid)
}

func TestCheckCmd_Checksum(t *testing.T) {
	out, err := runRoot(t, "check", "--checksum",
		"--ptrades", "1234-5678-9012 || Shiny (X, Y)",
		"--svex", "1234-5678-9012 || Shiny || 0042")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"1234-5678-9012"}, res.Invalid)
}

func TestCheckCmd_FormatError(t *testing.T) {
	_, err := runRoot(t, "check", "--ptrades", "hello", "--svex", "1234-5678-9012 || Shiny || 0042")

	var formatErr *flair.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, flair.FieldTrades, formatErr.Field)
}

func TestCheckCmd_RequiresFlags(t *testing.T) {
	_, err := runRoot(t, "check", "--ptrades", "1234-5678-9012 || Shiny")
	assert.Error(t, err)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "check", "token"})
}
