package driven

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// PlaceStore persists staged places together with their upload status.
// Contact types are resolved through the supplied config on load.
type PlaceStore interface {
	// Save stores or updates a place staged for a remote instance.
	Save(ctx context.Context, domainName string, place *domain.Place) error

	// Get retrieves a place by local ID.
	Get(ctx context.Context, id string, cfg *domain.AppConfig) (*domain.Place, error)

	// Delete removes a place.
	Delete(ctx context.Context, id string) error

	// List returns every staged place for a domain in insertion order.
	List(ctx context.Context, domainName string, cfg *domain.AppConfig) ([]*domain.Place, error)
}
