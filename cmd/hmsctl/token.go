package main

import (
	"fmt"

	"github.com/vramonlinebsc/hms/config"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	*RootOptions
	UserID string
	Role   string
}

// NewTokenCommand signs an access token with the configured secret, for local
// testing against the API.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user id and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(opts.UserID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			roleID, err := roleIDByName(opts.Role)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			token, err := jwt.NewJWTService(cfg.JWT).GenerateAccessToken(userID, roleID)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), token, map[string]string{"access_token": token})
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&opts.Role, "role", entity.RolePatient, "role: admin|doctor|patient")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func roleIDByName(name string) (int, error) {
	for _, r := range entity.DefaultRoles() {
		if r.RoleName == name {
			return r.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}
