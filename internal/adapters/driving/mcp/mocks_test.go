package mcp

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

// mockPlaceService is a mock implementation of driving.PlaceService.
type mockPlaceService struct {
	places     []*domain.Place
	err        error
	listDomain string
	uploadIDs  []string
}

func (m *mockPlaceService) Add(context.Context, driven.DirectoryClient, driving.PlaceInput) (*domain.Place, error) {
	return nil, m.err
}

func (m *mockPlaceService) Edit(context.Context, driven.DirectoryClient, string, driving.PlaceInput) (*domain.Place, error) {
	return nil, m.err
}

func (m *mockPlaceService) Get(_ context.Context, id string) (*domain.Place, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.places {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPlaceService) List(_ context.Context, domainName string) ([]*domain.Place, error) {
	m.listDomain = domainName
	return m.places, m.err
}

func (m *mockPlaceService) Remove(context.Context, string) error {
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

func (m *mockPlaceService) RetireUsers(context.Context, driven.DirectoryClient, string, bool) ([]string, error) {
	return nil, m.err
}

func (m *mockPlaceService) ClearCache(driven.DirectoryClient, string) {}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	session *domain.Session
	err     error
}

func (m *mockSessionService) CreateSession(context.Context, domain.AuthenticationInfo, string, string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockSessionService) Login(context.Context, domain.AuthenticationInfo, string, string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockSessionService) Current() (*domain.Session, error) {
	if m.session == nil && m.err == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return m.session, m.err
}

func (m *mockSessionService) Logout() error {
	return m.err
}

// stubClient satisfies driven.DirectoryClient; the server only passes it through.
type stubClient struct {
	driven.DirectoryClient
}

// mockClientFactory is a mock implementation of driven.DirectoryClientFactory.
type mockClientFactory struct {
	err error
}

func (m *mockClientFactory) NewClient(*domain.Session) (driven.DirectoryClient, error) {
	if m.err != nil {
		return nil, m.err
	}
	return stubClient{}, nil
}

func testSession() *domain.Session {
	return domain.NewSession(
		domain.AuthenticationInfo{Domain: "chis.example.org"},
		"manager", "AuthSession=abc", "facility-1", []string{"user_manager"}, "4.11.0",
	)
}

func testPlaces() []*domain.Place {
	chu := domain.ContactType{Name: "c_community_health_unit", Friendly: "CHU"}

	created := domain.NewPlace("p1", chu)
	created.Properties["name"] = "Kisumu CHU"
	created.Contact.Properties["name"] = "Jane"
	created.SetPlaceID("remote-1")
	created.SetCredentials("jane", "secret")
	created.SetState(domain.UploadSuccess)

	failed := domain.NewPlace("p2", chu)
	failed.Properties["name"] = "Nyalenda CHU"
	failed.SetState(domain.UploadFailure)
	failed.SetUploadError("could not create user")

	return []*domain.Place{created, failed}
}

func testPorts(places *mockPlaceService) *Ports {
	return &Ports{
		Places:   places,
		Sessions: &mockSessionService{session: testSession()},
		Clients:  &mockClientFactory{},
	}
}
