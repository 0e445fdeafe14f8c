package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockDirectoryClient implements driven.DirectoryClient for testing.
// Every call is appended to events as "<operation>:<subject>".
type mockDirectoryClient struct {
	mu      sync.Mutex
	session *domain.Session
	nextID  int

	// remote listings returned by GetPlacesWithType, keyed by type
	places map[string][]domain.RemotePlace

	// usersAtPlace returned by the retire calls, keyed by place id
	usersAtPlace map[string][]string

	// hooks; nil means success
	createContact func(payload domain.PlacePayload) error
	createPlace   func(payload domain.PlacePayload) error
	createUser    func(user *domain.UserPayload) error

	events       []string
	calls        map[string]int
	linked       map[string]string
	updatedWith  map[string]string
	createdUsers []domain.UserPayload
}

func newMockDirectoryClient() *mockDirectoryClient {
	return &mockDirectoryClient{
		session: domain.NewSession(
			domain.AuthenticationInfo{Friendly: "Test", Domain: "chis.example.org"},
			"manager", "AuthSession=abc", "county-1", []string{domain.RoleAdmin}, "4.11.0",
		),
		places:       make(map[string][]domain.RemotePlace),
		usersAtPlace: make(map[string][]string),
		calls:        make(map[string]int),
		linked:       make(map[string]string),
		updatedWith:  make(map[string]string),
	}
}

var _ driven.DirectoryClient = (*mockDirectoryClient)(nil)

func (m *mockDirectoryClient) record(op, subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	m.events = append(m.events, op+":"+subject)
}

func (m *mockDirectoryClient) id(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockDirectoryClient) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockDirectoryClient) eventLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *mockDirectoryClient) Session() *domain.Session { return m.session.Clone() }
func (m *mockDirectoryClient) CoreVersion() string      { return "4.11" }

func (m *mockDirectoryClient) CreateContact(_ context.Context, payload domain.PlacePayload) (string, error) {
	m.record("createContact", payload.Contact.Name)
	if m.createContact != nil {
		if err := m.createContact(payload); err != nil {
			return "", err
		}
	}
	return m.id("contact"), nil
}

func (m *mockDirectoryClient) CreatePlace(_ context.Context, payload domain.PlacePayload) (domain.CreatedPlace, error) {
	m.record("createPlace", payload.Name)
	if m.createPlace != nil {
		if err := m.createPlace(payload); err != nil {
			return domain.CreatedPlace{}, err
		}
	}
	return domain.CreatedPlace{PlaceID: m.id("place"), ContactID: payload.ContactRef}, nil
}

func (m *mockDirectoryClient) UpdatePlace(_ context.Context, payload domain.PlacePayload, contactID string) (map[string]any, error) {
	m.record("updatePlace", payload.ID)
	m.mu.Lock()
	m.updatedWith[payload.ID] = contactID
	m.mu.Unlock()
	doc := payload.Document()
	doc["contact"] = map[string]any{"_id": contactID}
	return doc, nil
}

func (m *mockDirectoryClient) LinkContact(_ context.Context, placeID, contactID string) error {
	m.record("linkContact", placeID)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linked[placeID] = contactID
	return nil
}

func (m *mockDirectoryClient) CreateUser(_ context.Context, user *domain.UserPayload) error {
	m.record("createUser", user.Username)
	if m.createUser != nil {
		if err := m.createUser(user); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdUsers = append(m.createdUsers, *user)
	return nil
}

func (m *mockDirectoryClient) GetPlacesWithType(_ context.Context, placeType string) ([]domain.RemotePlace, error) {
	m.record("getPlacesWithType", placeType)
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RemotePlace(nil), m.places[placeType]...), nil
}

func (m *mockDirectoryClient) GetUsersAtPlace(_ context.Context, placeID string) ([]string, error) {
	m.record("getUsersAtPlace", placeID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usersAtPlace[placeID], nil
}

func (m *mockDirectoryClient) DisableUsersWithPlace(_ context.Context, placeID string) ([]string, error) {
	m.record("disableUsers", placeID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usersAtPlace[placeID], nil
}

func (m *mockDirectoryClient) DeactivateUsersWithPlace(_ context.Context, placeID string) ([]string, error) {
	m.record("deactivateUsers", placeID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usersAtPlace[placeID], nil
}

func (m *mockDirectoryClient) DeleteDoc(_ context.Context, docID string) error {
	m.record("deleteDoc", docID)
	return nil
}

// mockObserver implements driven.UploadObserver and counts notifications.
type mockObserver struct {
	mu     sync.Mutex
	rows   []string
	tables int
}

func (o *mockObserver) RowChanged(placeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rows = append(o.rows, placeID)
}

func (o *mockObserver) TableChanged() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tables++
}

// mockRecorder implements driven.UploadRecorder.
type mockRecorder struct {
	mu       sync.Mutex
	finished map[domain.UploadState]int
	retries  map[domain.RejectionReason]int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{
		finished: make(map[domain.UploadState]int),
		retries:  make(map[domain.RejectionReason]int),
	}
}

func (r *mockRecorder) PlaceFinished(state domain.UploadState, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[state]++
}

func (r *mockRecorder) AccountRetry(reason domain.RejectionReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[reason]++
}

// testContactType returns a community health unit type under a sub county.
func testContactType() domain.ContactType {
	return domain.ContactType{
		Name:        "c_community_health_unit",
		Friendly:    "Community Health Unit",
		ContactType: "e_community_health_volunteer",
		ContactRole: "chv",
		UserRole:    []string{"community_health_volunteer"},
		Hierarchy: []domain.HierarchyLevel{
			{PropertyName: "sub_county", FriendlyName: "Sub County", ContactType: "b_sub_county", Required: true, Level: 1},
			{PropertyName: "county", FriendlyName: "County", ContactType: "a_county", Level: 2},
		},
		PlaceProperties:   []domain.ContactProperty{{CSVName: "CHU Name", DocName: "name", Type: "name", Required: true}},
		ContactProperties: []domain.ContactProperty{{CSVName: "CHV Name", DocName: "name", Type: "name", Required: true}},
	}
}

// newTestPlace returns a valid new place under sub-1.
func newTestPlace(id, name, contact string) *domain.Place {
	p := domain.NewPlace(id, testContactType())
	p.Properties["name"] = name
	p.Contact.Properties["name"] = contact
	p.Hierarchy.Parent = &domain.RemotePlace{ID: "sub-1", Name: "Westlands", Lineage: []string{"county-1"}}
	return p
}

// newReplacementPlace returns a place replacing the contact of an existing place.
func newReplacementPlace(id, contact string, target domain.RemotePlace) *domain.Place {
	p := domain.NewPlace(id, testContactType())
	p.Properties["name"] = target.Name
	p.Contact.Properties["name"] = contact
	p.Hierarchy.Replacement = &target
	return p
}
