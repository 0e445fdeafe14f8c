package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// Ensure UserManagerService implements the interface.
var _ driving.UserManagerService = (*UserManagerService)(nil)

const (
	// UserManagerTypeName is the contact type used for user manager contacts.
	// A contact type of this name in the config overrides the built-in one.
	UserManagerTypeName = "user_manager"

	// CountyTypeName is the place type user managers are created under.
	CountyTypeName = "a_county"
)

var defaultUserManagerType = domain.ContactType{
	Name:        UserManagerTypeName,
	Friendly:    "User Manager",
	ContactType: "e_user_manager",
	ContactRole: domain.RoleUserManager,
	UserRole:    []string{domain.RoleUserManager, "mm-online"},
}

// UserManagerService creates user manager contacts and accounts under a county.
type UserManagerService struct {
	cfg      *domain.AppConfig
	cache    *RemotePlaceCache
	accounts *AccountProvisioner
}

// NewUserManagerService creates a user manager service.
func NewUserManagerService(cfg *domain.AppConfig, cache *RemotePlaceCache, accounts *AccountProvisioner) *UserManagerService {
	return &UserManagerService{cfg: cfg, cache: cache, accounts: accounts}
}

// CreateUserManagers creates one contact and account per requested name.
// It stops at the first failure and returns the accounts created so far.
func (s *UserManagerService) CreateUserManagers(ctx context.Context, client driven.DirectoryClient, req driving.UserManagerRequest) ([]*domain.UserPayload, error) {
	if len(req.Names) == 0 {
		return nil, fmt.Errorf("%w: no names given", domain.ErrInvalidInput)
	}
	if len(req.Passwords) > 0 && len(req.Passwords) != len(req.Names) {
		return nil, fmt.Errorf("%w: provided %d users but %d passwords", domain.ErrInvalidInput, len(req.Names), len(req.Passwords))
	}

	county, err := s.findCounty(ctx, client, req.County)
	if err != nil {
		return nil, err
	}
	logger.Info("Users to be created under %s", county.ID)

	contactType := defaultUserManagerType
	if configured, err := s.cfg.ContactType(UserManagerTypeName); err == nil {
		contactType = configured
	}

	results := make([]*domain.UserPayload, 0, len(req.Names))
	for i, name := range req.Names {
		place := domain.NewPlace("", contactType)
		place.Contact.Properties["name"] = name

		payload := place.AsPayload(client.Session().Username)
		payload.Contact.Role = domain.RoleUserManager
		payload.Contact.Parent = county.ID

		contactID, err := client.CreateContact(ctx, payload)
		if err != nil {
			return results, fmt.Errorf("create contact for %s: %w", name, err)
		}
		logger.Debug("Created contact %s", contactID)

		user := domain.NewNamedUserPayload(name, contactType.UserRole, county.ID, contactID)
		if len(req.Passwords) > 0 {
			user.Password = req.Passwords[i]
		}
		user, err = s.accounts.Provision(ctx, user, client)
		if err != nil {
			return results, fmt.Errorf("create user for %s: %w", name, err)
		}
		results = append(results, user)
	}
	return results, nil
}

// findCounty returns the county named county, or the only county when
// county is empty. Names match case-insensitively.
func (s *UserManagerService) findCounty(ctx context.Context, client driven.DirectoryClient, county string) (*domain.RemotePlace, error) {
	counties, err := s.cache.Get(ctx, client, CountyTypeName)
	if err != nil {
		return nil, err
	}
	if county == "" {
		switch len(counties) {
		case 0:
			return nil, fmt.Errorf("%w: no county found", domain.ErrNotFound)
		case 1:
			return &counties[0], nil
		default:
			return nil, fmt.Errorf("%w: found multiple counties, use --county to constrain", domain.ErrInvalidInput)
		}
	}

	match, problem := pickPlace(counties, county, "county", func(domain.RemotePlace) bool { return true })
	if problem != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, problem)
	}
	return match, nil
}
