package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"splitit/pkg/apperror"
	"splitit/pkg/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		Long: `Issue a signed bearer token for the API server. Requires auth.secret
(or SPLITIT_AUTH_SECRET); the token is accepted by any server sharing the
same secret and issuer.`,
		Example: `  splitit token --subject ci --scope settle
  splitit token --subject admin --scope settle --scope history --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := auth.NewTokenManager(auth.FromConfig(&a.cfg.Auth))
			if err != nil {
				return apperror.Wrap(err, apperror.CodeInvalidArgument, "cannot issue tokens")
			}

			token, claims, err := tokens.Issue(subject, scopes, ttl)
			if err != nil {
				return apperror.Wrap(err, apperror.CodeInvalidArgument, "cannot issue token")
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			cmd.PrintErrf("subject %s, scopes %v, expires %s\n",
				claims.Subject, claims.Scopes, claims.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "splitit", "token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", auth.AllScopes, "granted scope (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")

	return cmd
}
