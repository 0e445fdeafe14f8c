package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

// mockPlaceService records UploadPlaces calls. Other methods are unused by the TUI.
type mockPlaceService struct {
	uploadFn func(ctx context.Context, places []*domain.Place) error
	uploaded []*domain.Place
}

func (m *mockPlaceService) Add(context.Context, driven.DirectoryClient, driving.PlaceInput) (*domain.Place, error) {
	return nil, nil
}

func (m *mockPlaceService) Edit(context.Context, driven.DirectoryClient, string, driving.PlaceInput) (*domain.Place, error) {
	return nil, nil
}

func (m *mockPlaceService) Get(context.Context, string) (*domain.Place, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPlaceService) List(context.Context, string) ([]*domain.Place, error) {
	return nil, nil
}

func (m *mockPlaceService) Remove(context.Context, string) error {
	return nil
}

func (m *mockPlaceService) Upload(context.Context, driven.DirectoryClient, []string) ([]*domain.Place, error) {
	return nil, nil
}

func (m *mockPlaceService) Select(context.Context, string, []string) ([]*domain.Place, error) {
	return nil, nil
}

func (m *mockPlaceService) UploadPlaces(ctx context.Context, _ driven.DirectoryClient, places []*domain.Place) error {
	m.uploaded = places
	if m.uploadFn != nil {
		return m.uploadFn(ctx, places)
	}
	return nil
}

func (m *mockPlaceService) RetireUsers(context.Context, driven.DirectoryClient, string, bool) ([]string, error) {
	return nil, nil
}

func (m *mockPlaceService) ClearCache(driven.DirectoryClient, string) {}

type mockUploadManager struct {
	mu        sync.Mutex
	observers []driven.UploadObserver
}

func (m *mockUploadManager) DoUpload(context.Context, []*domain.Place, driven.DirectoryClient) error {
	return nil
}

func (m *mockUploadManager) Subscribe(observer driven.UploadObserver) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
	return func() {}
}

// stubClient satisfies driven.DirectoryClient. The TUI only passes it through.
type stubClient struct {
	driven.DirectoryClient
}

func testPorts() (*Ports, *mockPlaceService) {
	places := &mockPlaceService{}
	return &Ports{
		Places:  places,
		Uploads: &mockUploadManager{},
		Client:  stubClient{},
	}, places
}
