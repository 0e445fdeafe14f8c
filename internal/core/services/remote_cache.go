package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// RemotePlaceCache memoizes remote place listings per instance and type.
//
// One cache is constructed per process and shared by every upload.
// Listings are appended to as places are created and are only
// re-fetched after Clear.
type RemotePlaceCache struct {
	mu      sync.Mutex
	entries map[cacheKey][]domain.RemotePlace
	fetches singleflight.Group
}

type cacheKey struct {
	domain    string
	placeType string
}

func (k cacheKey) String() string {
	return k.domain + "/" + k.placeType
}

// NewRemotePlaceCache creates an empty cache.
func NewRemotePlaceCache() *RemotePlaceCache {
	return &RemotePlaceCache{
		entries: make(map[cacheKey][]domain.RemotePlace),
	}
}

func keyFor(client driven.DirectoryClient, placeType string) cacheKey {
	return cacheKey{domain: client.Session().AuthInfo.Domain, placeType: placeType}
}

// Get returns the remote places of a type, fetching them on first access.
// Concurrent calls for an unfetched type share one fetch.
func (c *RemotePlaceCache) Get(ctx context.Context, client driven.DirectoryClient, placeType string) ([]domain.RemotePlace, error) {
	key := keyFor(client, placeType)

	c.mu.Lock()
	if places, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return slices.Clone(places), nil
	}
	c.mu.Unlock()

	v, err, _ := c.fetches.Do(key.String(), func() (any, error) {
		c.mu.Lock()
		if places, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return places, nil
		}
		c.mu.Unlock()

		logger.Debug("Fetching remote places of type %s", placeType)
		places, err := client.GetPlacesWithType(ctx, placeType)
		if err != nil {
			return nil, fmt.Errorf("list %s places: %w", placeType, err)
		}
		for i := range places {
			places[i].Type = domain.RemotePlaceRemote
		}

		c.mu.Lock()
		c.entries[key] = places
		c.mu.Unlock()
		return places, nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(v.([]domain.RemotePlace)), nil
}

// Add appends a created place to its type's listing without a refetch.
// Places of a type that was never fetched are skipped; the first Get of
// that type lists them from the remote instance.
func (c *RemotePlaceCache) Add(place *domain.Place, client driven.DirectoryClient) {
	key := keyFor(client, place.Type.Name)
	remote := place.AsRemotePlace()

	c.mu.Lock()
	defer c.mu.Unlock()

	places, ok := c.entries[key]
	if !ok {
		return
	}
	for _, p := range places {
		if p.ID == remote.ID {
			return
		}
	}
	c.entries[key] = append(places, remote)
}

// Clear drops the listing of a type so the next Get refetches it.
func (c *RemotePlaceCache) Clear(client driven.DirectoryClient, placeType string) {
	key := keyFor(client, placeType)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
