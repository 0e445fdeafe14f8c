package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

func newTestUserManagerService(counties ...domain.RemotePlace) (*UserManagerService, *mockDirectoryClient) {
	client := newMockDirectoryClient()
	client.places[CountyTypeName] = counties
	svc := NewUserManagerService(&domain.AppConfig{}, NewRemotePlaceCache(), NewAccountProvisioner(nil))
	return svc, client
}

// TestCreateUserManagers_SingleCounty tests creating managers under the only county
func TestCreateUserManagers_SingleCounty(t *testing.T) {
	svc, client := newTestUserManagerService(domain.RemotePlace{ID: "county-1", Name: "nairobi"})

	users, err := svc.CreateUserManagers(context.Background(), client, driving.UserManagerRequest{
		Names: []string{"Alice Manager", "Bob Manager"},
	})
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "alice_manager", users[0].Username)
	assert.Equal(t, "county-1", users[0].Place)
	assert.Equal(t, []string{domain.RoleUserManager, "mm-online"}, users[0].Roles)
	assert.NotEmpty(t, users[0].Contact)
	assert.Equal(t, 2, client.count("createContact"))
	assert.Equal(t, 2, client.count("createUser"))
}

// TestCreateUserManagers_PasswordOverride tests reusing given passwords
func TestCreateUserManagers_PasswordOverride(t *testing.T) {
	svc, client := newTestUserManagerService(domain.RemotePlace{ID: "county-1", Name: "nairobi"})

	users, err := svc.CreateUserManagers(context.Background(), client, driving.UserManagerRequest{
		Names:     []string{"Alice"},
		Passwords: []string{"Secret-Passw0rd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Secret-Passw0rd", users[0].Password)
}

// TestCreateUserManagers_CountySelection tests matching the requested county
func TestCreateUserManagers_CountySelection(t *testing.T) {
	svc, client := newTestUserManagerService(
		domain.RemotePlace{ID: "county-1", Name: "nairobi"},
		domain.RemotePlace{ID: "county-2", Name: "mombasa"},
	)
	ctx := context.Background()

	_, err := svc.CreateUserManagers(ctx, client, driving.UserManagerRequest{Names: []string{"Alice"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	users, err := svc.CreateUserManagers(ctx, client, driving.UserManagerRequest{Names: []string{"Alice"}, County: "Mombasa"})
	require.NoError(t, err)
	assert.Equal(t, "county-2", users[0].Place)

	_, err = svc.CreateUserManagers(ctx, client, driving.UserManagerRequest{Names: []string{"Alice"}, County: "Kisumu"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestCreateUserManagers_InvalidRequest tests argument checks
func TestCreateUserManagers_InvalidRequest(t *testing.T) {
	svc, client := newTestUserManagerService(domain.RemotePlace{ID: "county-1", Name: "nairobi"})
	ctx := context.Background()

	_, err := svc.CreateUserManagers(ctx, client, driving.UserManagerRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateUserManagers(ctx, client, driving.UserManagerRequest{Names: []string{"a", "b"}, Passwords: []string{"x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, client.count("createContact"))
}

// TestCreateUserManagers_NoCounty tests an instance without counties
func TestCreateUserManagers_NoCounty(t *testing.T) {
	svc, client := newTestUserManagerService()

	_, err := svc.CreateUserManagers(context.Background(), client, driving.UserManagerRequest{Names: []string{"Alice"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
