package main

import (
	"context"
	"fmt"

	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the version marker table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withApp(ctx, func(m *migration.Migrator) error {
			if err := m.Initialize(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "initialized version table for module %s\n", m.Module().ID())
			return nil
		})
	},
}
