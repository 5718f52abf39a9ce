package main

import (
	"flairhq/internal/flair"
	json "github.com/goccy/go-json"

	"github.com/spf13/cobra"
)

type checkResult struct {
	Trades      string   `json:"ptrades"`
	Exchange    string   `json:"svex"`
	FriendCodes []string `json:"friendCodes"`
	Invalid     []string `json:"invalid,omitempty"`
}

// newCheckCmd validates flair texts offline, without touching the store or the platform.
func newCheckCmd() *cobra.Command {
	var (
		trades, exchange string
		checksum         bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate flair texts against the subject grammars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := flair.Validate(trades, exchange)
			if err != nil {
				return err
			}
			res := checkResult{
				Trades:      parsed.Trades,
				Exchange:    parsed.Exchange,
				FriendCodes: parsed.FriendCodes,
			}
			validator := flair.NewValidator(checksum)
			for _, fc := range parsed.FriendCodes {
				if !validator.IsValid(fc) {
					res.Invalid = append(res.Invalid, fc)
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&trades, "ptrades", "", "Trades flair text")
	cmd.Flags().StringVar(&exchange, "svex", "", "Exchange flair text")
	cmd.Flags().BoolVar(&checksum, "checksum", false, "Verify the friend code checksum")
	_ = cmd.MarkFlagRequired("ptrades")
	_ = cmd.MarkFlagRequired("svex")
	return cmd
}
