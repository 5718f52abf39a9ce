package main

import (
	"flairhq/internal/providers"
	"flairhq/internal/structures"
	"fmt"

	"github.com/spf13/cobra"
)

// newTokenCmd mints a session token signed with the configured secret.
// Useful for local testing and for bootstrapping moderator access.
func newTokenCmd(flags *structures.CliFlags) *cobra.Command {
	var (
		user  string
		isMod bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := providers.NewConfigProvider(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, err := providers.NewAuthProvider(conf).Issue(user, isMod, nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username the token is issued to")
	cmd.Flags().BoolVar(&isMod, "mod", false, "Grant moderator access")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
