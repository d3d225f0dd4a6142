package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	authmw "github.com/mind-engage/mindengage-interview/internal/auth/middleware"
	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local logins",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create or update a local login",
	Long: `Create a local login, or reset the role and password of an existing one.

Examples:
  interviewd user add ada --role candidate --password s3cret
  interviewd user add rev --role reviewer --password s3cret`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var (
	userRole     string
	userPassword string
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().StringVar(&userRole, "role", rbac.RoleCandidate, "Role: candidate, reviewer or admin")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password (required)")
	_ = userAddCmd.MarkFlagRequired("password")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()
	dbh, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbh.Close()

	u, err := authmw.NewUsers(dbh).Add(ctx, args[0], userRole, userPassword)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "user %s (%s) id=%s\n", u.Username, u.Role, u.ID)
	return nil
}
