package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benvon/sneaker-inventory/internal/database"
	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewUserCmd creates the user command
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect and remove users",
	}
	cmd.AddCommand(newUserShowCmd(), newUserDeleteCmd())
	return cmd
}

func newUserShowCmd() *cobra.Command {
	var uid, email string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user and how many items they own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (uid == "") == (email == "") {
				return errors.New("exactly one of --uid or --email is required")
			}
			return withDatabase(cmd.ErrOrStderr(), func(db *database.DB) error {
				return showUser(cmd.Context(), db.Gorm(), cmd.OutOrStdout(), uid, email)
			})
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "Firebase uid")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and, by cascade, their inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if uid == "" {
				return errors.New("--uid is required")
			}
			return withDatabase(cmd.ErrOrStderr(), func(db *database.DB) error {
				return deleteUser(cmd.Context(), db, cmd.OutOrStdout(), uid)
			})
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "Firebase uid")
	return cmd
}

func lookupUser(ctx context.Context, conn *gorm.DB, uid, email string) (*models.User, error) {
	users := database.NewUserRepository(conn)
	if uid != "" {
		return users.GetBySubjectID(ctx, uid)
	}
	return users.GetByEmail(ctx, email)
}

func showUser(ctx context.Context, conn *gorm.DB, out io.Writer, uid, email string) error {
	user, err := lookupUser(ctx, conn, uid, email)
	if err != nil {
		return err
	}

	count, err := database.NewInventoryRepository(conn).CountByOwner(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ID:           %d\n", user.ID)
	fmt.Fprintf(out, "Firebase UID: %s\n", user.FirebaseUID)
	fmt.Fprintf(out, "Email:        %s\n", user.Email)
	fmt.Fprintf(out, "Items:        %d\n", count)
	return nil
}

func deleteUser(ctx context.Context, db *database.DB, out io.Writer, uid string) error {
	var (
		user  *models.User
		count int64
	)
	// the reported count must match what the cascade removed
	err := db.WithTx(ctx, func(tx *gorm.DB) error {
		users := database.NewUserRepository(tx)

		var err error
		user, err = users.GetBySubjectID(ctx, uid)
		if err != nil {
			return err
		}
		count, err = database.NewInventoryRepository(tx).CountByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		return users.Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Deleted user %d (%s) and %d inventory items\n", user.ID, user.Email, count)
	return nil
}
