package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts on the instance",
}

var usersDisableCmd = &cobra.Command{
	Use:   "disable [place-id]",
	Short: "Disable every user assigned to a remote place",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersRetire(false),
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate [place-id]",
	Short: "Remove the roles of every user assigned to a remote place",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersRetire(true),
}

var createUserManagersCmd = &cobra.Command{
	Use:   "create-user-managers",
	Short: "Create user manager accounts under a county",
	Long: `Create a user manager contact and account per name under a county.

Examples:
  usermgr create-user-managers --names "Jane Doe,John Doe" --county Kisumu
  usermgr create-user-managers --names "Jane Doe" --passwords "S3cret!pass"`,
	RunE: runCreateUserManagers,
}

var (
	managerNames     []string
	managerPasswords []string
	managerCounty    string
)

func init() {
	createUserManagersCmd.Flags().StringSliceVar(&managerNames, "names", nil, "comma separated names of the user managers")
	createUserManagersCmd.Flags().StringSliceVar(&managerPasswords, "passwords", nil, "comma separated passwords, in the order of --names")
	createUserManagersCmd.Flags().StringVar(&managerCounty, "county", "", "name of the county; required when the instance has several")

	usersCmd.AddCommand(usersDisableCmd)
	usersCmd.AddCommand(usersDeactivateCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(createUserManagersCmd)
}

func runUsersRetire(deactivate bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if placeService == nil {
			return errors.New("place service not configured")
		}

		client, err := currentClient()
		if err != nil {
			return err
		}

		ids, err := placeService.RetireUsers(cmd.Context(), client, args[0], deactivate)
		verb := "Disabled"
		if deactivate {
			verb = "Deactivated"
		}
		if len(ids) > 0 {
			cmd.Printf("%s %d user(s): %s\n", verb, len(ids), strings.Join(ids, ", "))
		}
		if err != nil {
			return fmt.Errorf("failed to retire users: %w", err)
		}
		if len(ids) == 0 {
			cmd.Printf("No users at place %s\n", args[0])
		}
		return nil
	}
}

func runCreateUserManagers(cmd *cobra.Command, _ []string) error {
	if userManagerService == nil {
		return errors.New("user manager service not configured")
	}
	if len(managerNames) == 0 {
		return errors.New("--names is required")
	}

	client, err := currentClient()
	if err != nil {
		return err
	}

	users, err := userManagerService.CreateUserManagers(cmd.Context(), client, driving.UserManagerRequest{
		Names:     managerNames,
		Passwords: managerPasswords,
		County:    managerCounty,
	})
	for _, u := range users {
		cmd.Printf("  %s: %s / %s\n", u.FullName, u.Username, u.Password)
	}
	if err != nil {
		return fmt.Errorf("failed to create user managers: %w", err)
	}
	cmd.Printf("Created %d user manager(s).\n", len(users))
	return nil
}
