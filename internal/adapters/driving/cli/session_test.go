package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

func TestLoginCmd_FromEnvironment(t *testing.T) {
	sessions := &mockSessionService{}
	buf := setupServices(t, sessions, nil)
	t.Setenv(EnvDomain, "chis.example.org")
	t.Setenv(EnvUsername, "manager")
	t.Setenv(EnvPassword, "secret")

	rootCmd.SetArgs([]string{"login"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "chis.example.org", sessions.loginInfo.Domain)
	assert.False(t, sessions.loginInfo.UseHTTP)
	assert.Equal(t, "manager", sessions.loginUser)
	assert.Equal(t, "secret", sessions.loginPass)
	assert.Contains(t, buf.String(), "Logged in to chis.example.org as manager (core 4.11.0)")
}

func TestLoginCmd_FlagsOverrideEnvironment(t *testing.T) {
	sessions := &mockSessionService{}
	setupServices(t, sessions, nil)
	t.Setenv(EnvDomain, "other.example.org")
	t.Setenv(EnvUsername, "other")
	t.Setenv(EnvPassword, "secret")

	rootCmd.SetArgs([]string{"login", "--domain", "localhost:5988", "--username", "admin", "--http"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "localhost:5988", sessions.loginInfo.Domain)
	assert.True(t, sessions.loginInfo.UseHTTP)
	assert.Equal(t, "admin", sessions.loginUser)
}

func TestLoginCmd_UsesConfiguredDomain(t *testing.T) {
	sessions := &mockSessionService{}
	setupServices(t, sessions, nil)
	appConfig = &domain.AppConfig{Domains: []domain.AuthenticationInfo{
		{Friendly: "Local", Domain: "localhost:5988", UseHTTP: true},
	}}
	t.Setenv(EnvPassword, "secret")

	rootCmd.SetArgs([]string{"login", "-d", "localhost:5988", "-u", "admin"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, sessions.loginInfo.UseHTTP)
	assert.Equal(t, "Local", sessions.loginInfo.Friendly)
}

func TestLoginCmd_Prompts(t *testing.T) {
	sessions := &mockSessionService{}
	setupServices(t, sessions, nil)
	t.Setenv(EnvDomain, "")
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	rootCmd.SetIn(bytes.NewBufferString("chis.example.org\nmanager\nsecret\n"))

	rootCmd.SetArgs([]string{"login"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "chis.example.org", sessions.loginInfo.Domain)
	assert.Equal(t, "manager", sessions.loginUser)
	assert.Equal(t, "secret", sessions.loginPass)
}

func TestLoginCmd_MissingPassword(t *testing.T) {
	setupServices(t, &mockSessionService{}, nil)
	t.Setenv(EnvPassword, "")
	rootCmd.SetIn(bytes.NewBufferString(""))

	rootCmd.SetArgs([]string{"login", "-d", "chis.example.org", "-u", "manager"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestLoginCmd_Rejected(t *testing.T) {
	setupServices(t, &mockSessionService{err: domain.ErrMissingRole}, nil)
	t.Setenv(EnvPassword, "secret")

	rootCmd.SetArgs([]string{"login", "-d", "chis.example.org", "-u", "chw"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingRole)
}

func TestLoginCmd_ServiceNotConfigured(t *testing.T) {
	setupServices(t, &mockSessionService{}, nil)
	sessionService = nil

	rootCmd.SetArgs([]string{"login"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session service not configured")
}

func TestLogoutCmd(t *testing.T) {
	sessions := &mockSessionService{session: testSession()}
	buf := setupServices(t, sessions, nil)

	rootCmd.SetArgs([]string{"logout"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, sessions.loggedOut)
	assert.Contains(t, buf.String(), "Logged out.")
}

func TestWhoamiCmd(t *testing.T) {
	buf := setupServices(t, &mockSessionService{session: testSession()}, nil)

	rootCmd.SetArgs([]string{"whoami"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Username: manager")
	assert.Contains(t, buf.String(), "Instance: https://chis.example.org/")
	assert.Contains(t, buf.String(), "Roles:    user_manager")
}

func TestWhoamiCmd_NotLoggedIn(t *testing.T) {
	buf := setupServices(t, &mockSessionService{}, nil)

	rootCmd.SetArgs([]string{"whoami"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Not logged in.")
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
