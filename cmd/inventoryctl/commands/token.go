package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benvon/sneaker-inventory/internal/config"
	"github.com/benvon/sneaker-inventory/internal/middleware"
	"github.com/benvon/sneaker-inventory/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with Firebase ID tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <id-token>",
		Short: "Verify an ID token against the configured Firebase project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fb, err := config.FirebaseConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			provider, err := oidc.NewFirebaseProvider(fb.ProjectID, fb.Issuer, fb.JWKSURL)
			if err != nil {
				return err
			}
			verifier := oidc.NewVerifier(oidc.NewJWKSManager(oidc.WithTTL(fb.JWKSCacheTTL)), provider)

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			return verifyToken(ctx, verifier, cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func verifyToken(ctx context.Context, verifier middleware.TokenVerifier, out io.Writer, token string) error {
	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ Token is valid")
	fmt.Fprintf(out, "Subject:        %s\n", identity.SubjectID)
	fmt.Fprintf(out, "Email:          %s\n", identity.Email)
	fmt.Fprintf(out, "Email verified: %t\n", identity.EmailVerified)
	fmt.Fprintf(out, "Issuer:         %s\n", identity.Issuer)
	fmt.Fprintf(out, "Expires:        %s\n", time.Unix(identity.ExpiresAt, 0).UTC().Format(time.RFC3339))
	return nil
}
