package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// Environment variables read for non-interactive login. A .env file in the
// working directory is loaded first; variables already set take precedence.
const (
	EnvUsername = "USERMGR_USERNAME"
	EnvPassword = "USERMGR_PASSWORD"
	EnvDomain   = "USERMGR_DOMAIN"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a CHT instance",
	Long: `Log in to a CHT instance and store the session for later commands.

The user must hold the user_manager role, or be an administrator, and the
instance must run core version 4.7.0 or later.

Credentials are taken from flags, then from USERMGR_DOMAIN, USERMGR_USERNAME
and USERMGR_PASSWORD (also read from a .env file), then prompted for.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE:  runWhoami,
}

var (
	loginDomain   string
	loginUsername string
	loginHTTP     bool
)

func init() {
	loginCmd.Flags().StringVarP(&loginDomain, "domain", "d", "", "instance domain, e.g. chis.example.org")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username")
	loginCmd.Flags().BoolVar(&loginHTTP, "http", false, "connect over plain http")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	// A missing .env file is normal.
	_ = godotenv.Load()

	in := bufio.NewReader(cmd.InOrStdin())

	domainName := firstNonEmpty(loginDomain, os.Getenv(EnvDomain))
	if domainName == "" {
		domainName = prompt(cmd, in, "Domain: ")
	}
	username := firstNonEmpty(loginUsername, os.Getenv(EnvUsername))
	if username == "" {
		username = prompt(cmd, in, "Username: ")
	}
	password := os.Getenv(EnvPassword)
	if password == "" {
		cmd.Print("Password: ")
		password = readPassword(cmd, in)
		cmd.Println()
	}

	if domainName == "" || username == "" || password == "" {
		return errors.New("domain, username and password are required")
	}

	authInfo := domain.AuthenticationInfo{Friendly: domainName, Domain: domainName}
	if appConfig != nil {
		authInfo = appConfig.Domain(domainName)
	}
	if loginHTTP {
		authInfo.UseHTTP = true
	}

	session, err := sessionService.Login(cmd.Context(), authInfo, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Printf("Logged in to %s as %s (core %s)\n", session.AuthInfo.Domain, session.Username, session.CoreVersion)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}
	if err := sessionService.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	cmd.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.Current()
	if errors.Is(err, domain.ErrNotLoggedIn) {
		cmd.Println("Not logged in.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	cmd.Printf("Username: %s\n", session.Username)
	cmd.Printf("Instance: %s\n", session.AuthInfo.BaseURL())
	cmd.Printf("Facility: %s\n", session.FacilityID)
	cmd.Printf("Roles:    %s\n", strings.Join(session.Roles, ", "))
	cmd.Printf("Core:     %s\n", session.CoreVersion)
	return nil
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) string {
	cmd.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, in *bufio.Reader) string {
	if cmd.InOrStdin() == io.Reader(os.Stdin) && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
