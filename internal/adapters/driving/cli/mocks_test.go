package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	session   *domain.Session
	err       error
	loginInfo domain.AuthenticationInfo
	loginUser string
	loginPass string
	loggedOut bool
}

func (m *mockSessionService) CreateSession(_ context.Context, info domain.AuthenticationInfo, username, password string) (*domain.Session, error) {
	return m.Login(context.Background(), info, username, password)
}

func (m *mockSessionService) Login(_ context.Context, info domain.AuthenticationInfo, username, password string) (*domain.Session, error) {
	m.loginInfo, m.loginUser, m.loginPass = info, username, password
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewSession(info, username, "AuthSession=abc", "facility-1", []string{"user_manager"}, "4.11.0"), nil
}

func (m *mockSessionService) Current() (*domain.Session, error) {
	if m.session == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return m.session, nil
}

func (m *mockSessionService) Logout() error {
	m.loggedOut = true
	return m.err
}

// mockPlaceService implements driving.PlaceService for testing.
type mockPlaceService struct {
	places     []*domain.Place
	err        error
	input      driving.PlaceInput
	editedID   string
	removedID  string
	uploadIDs  []string
	retired    []string
	deactivate bool
	retiredAt  string
	cleared    string
}

func (m *mockPlaceService) Add(_ context.Context, _ driven.DirectoryClient, input driving.PlaceInput) (*domain.Place, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return m.places[0], nil
}

func (m *mockPlaceService) Edit(_ context.Context, _ driven.DirectoryClient, id string, input driving.PlaceInput) (*domain.Place, error) {
	m.editedID, m.input = id, input
	if m.err != nil {
		return nil, m.err
	}
	return m.places[0], nil
}

func (m *mockPlaceService) Get(_ context.Context, id string) (*domain.Place, error) {
	for _, p := range m.places {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPlaceService) List(context.Context, string) ([]*domain.Place, error) {
	return m.places, m.err
}

func (m *mockPlaceService) Remove(_ context.Context, id string) error {
	m.removedID = id
	return m.err
}

func (m *mockPlaceService) Upload(_ context.Context, _ driven.DirectoryClient, ids []string) ([]*domain.Place, error) {
	m.uploadIDs = ids
	return m.places, m.err
}

func (m *mockPlaceService) Select(context.Context, string, []string) ([]*domain.Place, error) {
	return m.places, m.err
}

func (m *mockPlaceService) UploadPlaces(context.Context, driven.DirectoryClient, []*domain.Place) error {
	return m.err
}

func (m *mockPlaceService) RetireUsers(_ context.Context, _ driven.DirectoryClient, placeID string, deactivate bool) ([]string, error) {
	m.retiredAt, m.deactivate = placeID, deactivate
	return m.retired, m.err
}

func (m *mockPlaceService) ClearCache(_ driven.DirectoryClient, placeType string) {
	m.cleared = placeType
}

// mockUserManagerService implements driving.UserManagerService for testing.
type mockUserManagerService struct {
	req   driving.UserManagerRequest
	users []*domain.UserPayload
	err   error
}

func (m *mockUserManagerService) CreateUserManagers(_ context.Context, _ driven.DirectoryClient, req driving.UserManagerRequest) ([]*domain.UserPayload, error) {
	m.req = req
	return m.users, m.err
}

// stubClient satisfies driven.DirectoryClient. Commands only read its session.
type stubClient struct {
	driven.DirectoryClient
	session *domain.Session
}

func (c stubClient) Session() *domain.Session {
	return c.session
}

type mockClientFactory struct{}

func (mockClientFactory) NewClient(session *domain.Session) (driven.DirectoryClient, error) {
	return stubClient{session: session}, nil
}

func testSession() *domain.Session {
	return domain.NewSession(
		domain.AuthenticationInfo{Domain: "chis.example.org"},
		"manager", "AuthSession=abc", "facility-1", []string{"user_manager"}, "4.11.0",
	)
}

func testPlace(id, name, contact string) *domain.Place {
	p := domain.NewPlace(id, domain.ContactType{Name: "c_community_health_unit", Friendly: "CHU"})
	p.Properties["name"] = name
	p.Contact.Properties["name"] = contact
	return p
}

// setupServices injects mocks and restores package state when the test ends.
func setupServices(t *testing.T, sessions *mockSessionService, places *mockPlaceService) *bytes.Buffer {
	t.Helper()

	oldSessions, oldPlaces, oldUploads := sessionService, placeService, uploadManager
	oldManagers, oldClients, oldConfig := userManagerService, clientFactory, appConfig
	oldBootstrap, oldClose := bootstrap, closeFn

	sessionService = sessions
	if places != nil {
		placeService = places
	} else {
		placeService = nil
	}
	uploadManager = nil
	userManagerService = nil
	clientFactory = mockClientFactory{}
	appConfig = nil
	bootstrap = nil
	closeFn = nil
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		sessionService, placeService, uploadManager = oldSessions, oldPlaces, oldUploads
		userManagerService, clientFactory, appConfig = oldManagers, oldClients, oldConfig
		bootstrap, closeFn = oldBootstrap, oldClose
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return buf
}

// resetFlags clears flag variables left over from earlier executions.
// Maps stay non-nil because pflag merges into them once a flag was set.
func resetFlags() {
	placeType, placeReplace = "", ""
	placeProps = map[string]string{}
	placeContact = map[string]string{}
	placeHierarchy = map[string]string{}
	uploadTUI = false
	loginDomain, loginUsername, loginHTTP = "", "", false
	managerNames, managerPasswords, managerCounty = nil, nil, ""
	dataDirFlag, verboseFlag, metricsAddr = "", false, ""
}
