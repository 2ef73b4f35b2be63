package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"greenleaf/internal/auth"
)

var (
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Mint a bearer token signed with auth.secret",
	Long: `Issues an HS256 token the API accepts. There is no login endpoint; operators
mint tokens with this command and hand them to clients.

Example:
  greenleaf token ana@example.org --name "Ana" --ttl 72h`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name stored in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default auth.token_ttl)")
}

func runToken(cmd *cobra.Command, args []string) error {
	if !cfg.AuthEnabled() {
		return errors.New("auth.secret is not configured")
	}
	authn, err := auth.New(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	ttl := cfg.TokenTTL()
	if tokenTTL > 0 {
		ttl = tokenTTL
	}
	signed, err := authn.Issue(args[0], tokenName, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
