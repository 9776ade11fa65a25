package main

import (
	"context"
	"fmt"

	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/spf13/cobra"
)

var statusVersions bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current version and which declared versions are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withApp(ctx, func(m *migration.Migrator) error {
			if err := m.Initialize(ctx); err != nil {
				return err
			}
			st, err := m.Status(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), st.FormatHuman(statusVersions))
			return nil
		})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusVersions, "versions", true, "list every declared version")
}
