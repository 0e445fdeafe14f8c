package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// MaxAccountAttempts bounds account creation attempts for one user.
const MaxAccountAttempts = 5

// AccountProvisioner creates user accounts, recovering from rejections
// that a new username or password can fix.
type AccountProvisioner struct {
	recorder driven.UploadRecorder
}

// NewAccountProvisioner creates a provisioner. recorder may be nil.
func NewAccountProvisioner(recorder driven.UploadRecorder) *AccountProvisioner {
	return &AccountProvisioner{recorder: recorder}
}

// Provision creates the account described by user. On a taken username or
// a weak password it mutates user and retries, up to MaxAccountAttempts
// attempts in total. Any other failure is returned immediately.
func (a *AccountProvisioner) Provision(ctx context.Context, user *domain.UserPayload, client driven.DirectoryClient) (*domain.UserPayload, error) {
	for attempt := 1; attempt <= MaxAccountAttempts; attempt++ {
		err := client.CreateUser(ctx, user)
		if err == nil {
			logger.Debug("Created user %s after %d attempt(s)", user.Username, attempt)
			return user, nil
		}

		rejection, ok := domain.AsRejection(err)
		if !ok {
			return user, err
		}

		switch rejection.Reason {
		case domain.RejectionUsernameTaken:
			logger.Debug("Username %s is taken", user.Username)
			user.MakeUsernameMoreComplex()
		case domain.RejectionWeakPassword:
			logger.Debug("Password for %s was rejected", user.Username)
			user.RegeneratePassword()
		default:
			return user, err
		}

		if a.recorder != nil {
			a.recorder.AccountRetry(rejection.Reason)
		}
	}

	return user, fmt.Errorf("%w %s", domain.ErrAccountCreation, user.Contact)
}
