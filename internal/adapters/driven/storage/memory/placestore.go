package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Ensure PlaceStore implements the interface.
var _ driven.PlaceStore = (*PlaceStore)(nil)

type placeEntry struct {
	domainName string
	seq        int
	snapshot   domain.PlaceSnapshot
}

// PlaceStore is an in-memory implementation of driven.PlaceStore.
// It stores snapshots, so loaded places never alias saved ones.
type PlaceStore struct {
	mu     sync.RWMutex
	places map[string]placeEntry
	seq    int
}

// NewPlaceStore creates a new in-memory place store.
func NewPlaceStore() *PlaceStore {
	return &PlaceStore{
		places: make(map[string]placeEntry),
	}
}

// Save stores or updates a place.
func (s *PlaceStore) Save(_ context.Context, domainName string, place *domain.Place) error {
	snapshot := place.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.places[place.ID]
	if !ok {
		s.seq++
		entry.seq = s.seq
	}
	entry.domainName = domainName
	entry.snapshot = snapshot
	s.places[place.ID] = entry
	return nil
}

// Get retrieves a place by ID.
func (s *PlaceStore) Get(_ context.Context, id string, cfg *domain.AppConfig) (*domain.Place, error) {
	s.mu.RLock()
	entry, ok := s.places[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return load(entry.snapshot, cfg)
}

// Delete removes a place.
func (s *PlaceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.places, id)
	return nil
}

// List returns the places of a domain in the order they were first saved.
func (s *PlaceStore) List(_ context.Context, domainName string, cfg *domain.AppConfig) ([]*domain.Place, error) {
	s.mu.RLock()
	entries := make([]placeEntry, 0, len(s.places))
	for _, entry := range s.places {
		if entry.domainName == domainName {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]*domain.Place, 0, len(entries))
	for _, entry := range entries {
		place, err := load(entry.snapshot, cfg)
		if err != nil {
			return nil, err
		}
		result = append(result, place)
	}
	return result, nil
}

func load(snapshot domain.PlaceSnapshot, cfg *domain.AppConfig) (*domain.Place, error) {
	contactType, err := cfg.ContactType(snapshot.Type)
	if err != nil {
		return nil, fmt.Errorf("load place %s: %w", snapshot.ID, err)
	}
	return domain.PlaceFromSnapshot(snapshot, contactType), nil
}
