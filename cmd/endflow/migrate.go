package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"endflow/internal/database"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Status bool
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations and print the schema version.

Examples:
  endflow migrate
  endflow migrate --status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Status, "status", false, "only print the current schema version")

	return cmd
}

func runMigrate(cmd *cobra.Command, opts *MigrateOptions) error {
	db, err := database.Connect(cmd.Context(), opts.Config.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if !opts.Status {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	v, err := database.Version(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}
