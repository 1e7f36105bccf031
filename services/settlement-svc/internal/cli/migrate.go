package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"splitit/migrations"
	"splitit/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the settlement history schema",
		Long: `Apply or roll back the PostgreSQL schema used for settlement history.

Connection settings come from the database section of the config, even
when database.enabled is false.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd, func(m *database.Migrator) error {
				return m.Up(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd, func(m *database.Migrator) error {
				return m.Down(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Log the state of every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd, func(m *database.Migrator) error {
				return m.Status(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd, func(m *database.Migrator) error {
				v, err := m.Version(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

func (a *app) withMigrator(cmd *cobra.Command, fn func(m *database.Migrator) error) error {
	db, err := a.openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(database.NewMigrator(db.Pool(), migrations.PostgresMigrations, migrations.PostgresDir))
}
