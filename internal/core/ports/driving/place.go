package driving

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// PlaceInput is the user-entered data for staging a place.
type PlaceInput struct {
	// Type is the contact type name.
	Type string

	// Properties are the place properties keyed by document name.
	Properties map[string]string

	// Contact are the primary contact properties keyed by document name.
	Contact map[string]string

	// Hierarchy holds ancestor names keyed by hierarchy property name.
	Hierarchy map[string]string

	// Replace names an existing remote place whose primary contact is replaced.
	Replace string
}

// PlaceService stages, validates and uploads places.
type PlaceService interface {
	// Add stages a new place, resolving its hierarchy against the remote instance.
	Add(ctx context.Context, client driven.DirectoryClient, input PlaceInput) (*domain.Place, error)

	// Edit updates a staged place that is not yet created.
	Edit(ctx context.Context, client driven.DirectoryClient, id string, input PlaceInput) (*domain.Place, error)

	// Get retrieves a staged place.
	Get(ctx context.Context, id string) (*domain.Place, error)

	// List returns the staged places for the client's domain.
	List(ctx context.Context, domainName string) ([]*domain.Place, error)

	// Remove discards a staged place.
	Remove(ctx context.Context, id string) error

	// Upload uploads the given staged places, or every staged place of the
	// client's domain when ids is empty.
	Upload(ctx context.Context, client driven.DirectoryClient, ids []string) ([]*domain.Place, error)

	// Select returns the staged places with the given ids, or every staged
	// place of domainName when ids is empty.
	Select(ctx context.Context, domainName string, ids []string) ([]*domain.Place, error)

	// UploadPlaces uploads places returned by Select. Observers subscribed to
	// the upload manager see the same place values.
	UploadPlaces(ctx context.Context, client driven.DirectoryClient, places []*domain.Place) error

	// RetireUsers disables, or deactivates when deactivate is set, every user
	// assigned to a remote place and returns their document ids.
	RetireUsers(ctx context.Context, client driven.DirectoryClient, placeID string, deactivate bool) ([]string, error)

	// ClearCache drops the remote listing of a contact type.
	ClearCache(client driven.DirectoryClient, placeType string)
}
