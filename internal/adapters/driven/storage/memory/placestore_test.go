package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

func testConfig() *domain.AppConfig {
	return &domain.AppConfig{
		ContactTypes: []domain.ContactType{{Name: "c_community_health_unit", Friendly: "CHU"}},
	}
}

func testPlace(id, name string) *domain.Place {
	cfg := testConfig()
	p := domain.NewPlace(id, cfg.ContactTypes[0])
	p.Properties["name"] = name
	return p
}

func TestNewPlaceStore(t *testing.T) {
	store := NewPlaceStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.places)
}

func TestPlaceStore_SaveAndGet(t *testing.T) {
	store := NewPlaceStore()
	ctx := context.Background()

	place := testPlace("p1", "Kibera")
	place.SetContactID("contact-1")
	require.NoError(t, store.Save(ctx, "chis.example.org", place))

	loaded, err := store.Get(ctx, "p1", testConfig())
	require.NoError(t, err)
	assert.Equal(t, "Kibera", loaded.Name())
	assert.Equal(t, "CHU", loaded.Type.Friendly)
	assert.Equal(t, "contact-1", loaded.CreationDetails().ContactID)
	assert.NotSame(t, place, loaded)
}

func TestPlaceStore_GetNotFound(t *testing.T) {
	store := NewPlaceStore()

	_, err := store.Get(context.Background(), "missing", testConfig())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceStore_GetUnknownType(t *testing.T) {
	store := NewPlaceStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "d", testPlace("p1", "Kibera")))

	_, err := store.Get(ctx, "p1", &domain.AppConfig{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestPlaceStore_ListOrderAndDomain(t *testing.T) {
	store := NewPlaceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", testPlace("p1", "One")))
	require.NoError(t, store.Save(ctx, "b", testPlace("p2", "Two")))
	require.NoError(t, store.Save(ctx, "a", testPlace("p3", "Three")))
	require.NoError(t, store.Save(ctx, "a", testPlace("p1", "One updated")))

	places, err := store.List(ctx, "a", testConfig())
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "One updated", places[0].Name())
	assert.Equal(t, "Three", places[1].Name())
}

func TestPlaceStore_Delete(t *testing.T) {
	store := NewPlaceStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", testPlace("p1", "One")))

	require.NoError(t, store.Delete(ctx, "p1"))
	_, err := store.Get(ctx, "p1", testConfig())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceStore_ConcurrentAccess(t *testing.T) {
	store := NewPlaceStore()
	ctx := context.Background()
	place := testPlace("p1", "One")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Save(ctx, "a", place)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.List(ctx, "a", testConfig())
		}()
	}
	wg.Wait()

	places, err := store.List(ctx, "a", testConfig())
	require.NoError(t, err)
	assert.Len(t, places, 1)
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	session := domain.NewSession(domain.AuthenticationInfo{Domain: "d"}, "u", "t", "f", []string{"admin"}, "4.11.0")
	require.NoError(t, store.Save(session))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestConfigStore(t *testing.T) {
	store := NewConfigStore(*testConfig())

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, cfg.ContactTypes, 1)

	cfg.Upload.BatchSize = 4
	require.NoError(t, store.Save(cfg))

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, again.BatchSize())
	assert.Empty(t, store.Path())
}
