package driving

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// UserManagerRequest describes user manager accounts to create.
type UserManagerRequest struct {
	// Names of the user managers. One account is created per name.
	Names []string

	// Passwords optionally overrides the generated password per name.
	Passwords []string

	// County restricts the parent to the county with this name. When empty
	// there must be exactly one county.
	County string
}

// UserManagerService creates user manager contacts and accounts.
type UserManagerService interface {
	CreateUserManagers(ctx context.Context, client driven.DirectoryClient, req UserManagerRequest) ([]*domain.UserPayload, error)
}
