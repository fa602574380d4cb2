package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/benvon/sneaker-inventory/internal/database"
	"github.com/spf13/cobra"
)

// migrationRunner is the part of database.Migrator the commands drive
type migrationRunner interface {
	Up(ctx context.Context) ([]int64, error)
	Down(ctx context.Context) (int64, error)
	Version(ctx context.Context) (int64, error)
	Status(ctx context.Context) ([]database.MigrationStatus, error)
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  "Apply, roll back and inspect the embedded SQL migrations",
	}

	actions := []struct {
		use   string
		short string
		run   func(ctx context.Context, m migrationRunner, out io.Writer) error
	}{
		{"up", "Apply all pending migrations", migrateUp},
		{"down", "Roll back the most recent migration", migrateDown},
		{"status", "Show applied and pending migrations", migrateStatus},
		{"version", "Print the current schema version", migrateVersion},
	}

	for _, a := range actions {
		run := a.run
		cmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.ErrOrStderr(), func(db *database.DB) error {
					migrator, err := database.NewMigrator(db)
					if err != nil {
						return err
					}
					return run(cmd.Context(), migrator, cmd.OutOrStdout())
				})
			},
		})
	}

	return cmd
}

func migrateUp(ctx context.Context, m migrationRunner, out io.Writer) error {
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "No pending migrations")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(out, "Applied migration %05d\n", v)
	}
	return nil
}

func migrateDown(ctx context.Context, m migrationRunner, out io.Writer) error {
	v, err := m.Down(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rolled back migration %05d\n", v)
	return nil
}

func migrateVersion(ctx context.Context, m migrationRunner, out io.Writer) error {
	v, err := m.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Schema version: %d\n", v)
	return nil
}

func migrateStatus(ctx context.Context, m migrationRunner, out io.Writer) error {
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tFILE")
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(tw, "%05d\t%s\t%s\n", s.Version, state, s.Path)
	}
	return tw.Flush()
}
