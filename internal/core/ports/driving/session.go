package driving

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// SessionService establishes and stores authenticated sessions.
type SessionService interface {
	// CreateSession logs in and checks the user may manage users on the instance.
	CreateSession(ctx context.Context, authInfo domain.AuthenticationInfo, username, password string) (*domain.Session, error)

	// Login creates a session and stores it.
	Login(ctx context.Context, authInfo domain.AuthenticationInfo, username, password string) (*domain.Session, error)

	// Current returns the stored session or domain.ErrNotLoggedIn.
	Current() (*domain.Session, error)

	// Logout removes the stored session.
	Logout() error
}
