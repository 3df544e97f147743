package cmd

import (
	"errors"
	"fmt"

	"locallink-be/config"
	authUtils "locallink-be/utils"

	"github.com/spf13/cobra"
)

var tokenClaims authUtils.TokenClaims

// tokenCmd mints an HS256 token for local testing against JWT_SECRET.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed development token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET is required")
		}
		ttl, err := cmd.Flags().GetDuration("ttl")
		if err != nil {
			return err
		}

		token, err := authUtils.GenerateToken(tokenClaims, cfg.Auth.JWTSecret, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenClaims.UID, "uid", "", "user id placed in the uid and sub claims")
	tokenCmd.Flags().StringVar(&tokenClaims.Email, "email", "", "email claim")
	tokenCmd.Flags().StringVar(&tokenClaims.Name, "name", "", "display name claim")
	tokenCmd.Flags().StringVar(&tokenClaims.Role, "role", "", "role claim, e.g. admin")
	tokenCmd.Flags().BoolVar(&tokenClaims.Admin, "admin", false, "set the admin claim")
	tokenCmd.Flags().Duration("ttl", authUtils.DefaultTTL, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("uid")
}
