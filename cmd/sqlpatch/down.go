package main

import (
	"context"
	"fmt"

	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the current version",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.GetViper().BindPFlag("tags", cmd.Flags().Lookup("tag"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		tags := viper.GetViper().GetStringSlice("tags")
		ctx := context.Background()

		return withApp(ctx, func(m *migration.Migrator) error {
			if err := m.Rollback(ctx, tags...); err != nil {
				return err
			}
			current, err := m.CurrentVersionID(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "module %s at version %s\n", m.Module().ID(), displayVersion(current))
			return nil
		})
	},
}

func init() {
	downCmd.Flags().StringSlice("tag", nil, "also roll back patches carrying this tag (repeatable)")
}
