package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending versions, up to --to when given",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		if err := v.BindPFlag("to", cmd.Flags().Lookup("to")); err != nil {
			return err
		}
		return v.BindPFlag("tags", cmd.Flags().Lookup("tag"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		to := strings.TrimSpace(v.GetString("to"))
		tags := v.GetStringSlice("tags")
		ctx := context.Background()

		return withApp(ctx, func(m *migration.Migrator) error {
			if err := m.Initialize(ctx); err != nil {
				return err
			}
			if to == "" {
				if err := m.Migrate(ctx, tags...); err != nil {
					return err
				}
			} else if err := m.MigrateTo(ctx, to, tags...); err != nil {
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
	upCmd.Flags().String("to", "", "version id to migrate up to (default: last declared version)")
	upCmd.Flags().StringSlice("tag", nil, "also run patches carrying this tag (repeatable)")
}

func displayVersion(id string) string {
	if id == "" {
		return "(none)"
	}
	return id
}
