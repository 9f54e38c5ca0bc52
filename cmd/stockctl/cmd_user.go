package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	authsvc "github.com/mamadbah2/stockroom/internal/service/auth"
)

var (
	userName     string
	userPassword string
)

// stockctl user
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage sign-in users",
}

// stockctl user add <email>
var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create a user who can sign in",
	Long:  "Create a user. The password is read from --password or the STOCKCTL_PASSWORD environment variable.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := userPassword
		if password == "" {
			password = os.Getenv("STOCKCTL_PASSWORD")
		}
		if password == "" {
			return errors.New("a password is required: pass --password or set STOCKCTL_PASSWORD")
		}

		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		svc := authsvc.NewService(a.repo, nil, a.cfg.Auth, a.logger)
		uid, err := svc.CreateUser(cmd.Context(), args[0], password, userName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", args[0], uid)
		return nil
	},
}

// stockctl user role <email> <admin|user>
var userRoleCmd = &cobra.Command{
	Use:   "role <email> <admin|user>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := parseRole(args[1])
		if err != nil {
			return err
		}

		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		svc := authsvc.NewService(a.repo, nil, a.cfg.Auth, a.logger)
		if err := svc.SetRole(cmd.Context(), args[0], role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "initial password (at least 8 characters)")
}

func parseRole(s string) (models.Role, error) {
	role := models.Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q: use admin or user", s)
	}
	return role, nil
}
