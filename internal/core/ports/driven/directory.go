package driven

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// DirectoryClient writes to and reads from the remote directory service
// on behalf of one session.
//
// Implementations classify failures: rejected writes are returned as
// *domain.RejectionError, denied operations wrap domain.ErrAuthorization,
// missing documents wrap domain.ErrNotFound and connectivity failures wrap
// domain.ErrTransport.
type DirectoryClient interface {
	// Session returns a copy of the session the client acts for.
	Session() *domain.Session

	// CoreVersion names the capability set chosen for the remote version.
	CoreVersion() string

	// CreateContact creates the payload's contact at the payload's place id.
	CreateContact(ctx context.Context, payload domain.PlacePayload) (string, error)

	// CreatePlace creates a new place, with its embedded contact unless
	// the payload references an existing one.
	CreatePlace(ctx context.Context, payload domain.PlacePayload) (domain.CreatedPlace, error)

	// UpdatePlace merges the payload into an existing place document and sets
	// contactID as its primary contact. The previous primary contact is kept
	// in the document's attribution history.
	UpdatePlace(ctx context.Context, payload domain.PlacePayload, contactID string) (map[string]any, error)

	// LinkContact sets contactID as the primary contact of placeID.
	// It does not write when the place already references that contact.
	LinkContact(ctx context.Context, placeID, contactID string) error

	// CreateUser creates a user account.
	CreateUser(ctx context.Context, user *domain.UserPayload) error

	// GetPlacesWithType lists every remote place of a contact type.
	GetPlacesWithType(ctx context.Context, placeType string) ([]domain.RemotePlace, error)

	// GetUsersAtPlace returns the user document ids assigned to a place.
	GetUsersAtPlace(ctx context.Context, placeID string) ([]string, error)

	// DisableUsersWithPlace deletes every user assigned to a place and
	// returns their document ids.
	DisableUsersWithPlace(ctx context.Context, placeID string) ([]string, error)

	// DeactivateUsersWithPlace strips the roles of every user assigned to
	// a place and returns their document ids.
	DeactivateUsersWithPlace(ctx context.Context, placeID string) ([]string, error)

	// DeleteDoc deletes a document at its current revision.
	DeleteDoc(ctx context.Context, docID string) error
}

// DirectoryClientFactory builds a client for an established session.
type DirectoryClientFactory interface {
	NewClient(session *domain.Session) (DirectoryClient, error)
}

// UserSettings is the subset of a user's settings document needed to
// establish a session.
type UserSettings struct {
	FacilityID string
	Roles      []string
}

// Authenticator performs the unauthenticated bootstrap calls that
// establish a session.
type Authenticator interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, authInfo domain.AuthenticationInfo, username, password string) (string, error)

	// GetUserSettings reads the settings document of the logged in user.
	GetUserSettings(ctx context.Context, authInfo domain.AuthenticationInfo, token, username string) (UserSettings, error)

	// GetCoreVersion reads the remote core version.
	GetCoreVersion(ctx context.Context, authInfo domain.AuthenticationInfo, token string) (string, error)
}
