package main

import (
	"flairhq/internal/di"
	"flairhq/internal/structures"

	"github.com/spf13/cobra"
)

// newServeCmd runs the HTTP API until SIGINT or SIGTERM.
func newServeCmd(flags *structures.CliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FlairHQ API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := di.InitApp(flags)
			if err != nil {
				return err
			}
			cleanup()
			return nil
		},
	}
}
