package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// placeUploader performs the remote writes for one kind of place.
// The upload manager only calls a step while its creation detail is unset.
type placeUploader interface {
	// handleContact creates the primary contact. An empty id means the
	// contact cannot be created yet.
	handleContact(ctx context.Context, payload domain.PlacePayload) (string, error)

	// handlePlacePayload creates or updates the place and returns its id.
	handlePlacePayload(ctx context.Context, place *domain.Place, payload domain.PlacePayload) (string, error)

	// linkContactAndPlace makes the created contact the place's primary contact.
	linkContactAndPlace(ctx context.Context, place *domain.Place, placeID string) error
}

func uploaderFor(place *domain.Place, client driven.DirectoryClient) placeUploader {
	if place.IsDependant() {
		return &replacementPlaceUploader{client: client}
	}
	return &newPlaceUploader{client: client}
}

// newPlaceUploader creates a place and its contact from scratch.
type newPlaceUploader struct {
	client driven.DirectoryClient
}

func (u *newPlaceUploader) handleContact(ctx context.Context, payload domain.PlacePayload) (string, error) {
	return u.client.CreateContact(ctx, payload)
}

func (u *newPlaceUploader) handlePlacePayload(ctx context.Context, place *domain.Place, payload domain.PlacePayload) (string, error) {
	payload.ContactRef = place.CreationDetails().ContactID
	created, err := u.client.CreatePlace(ctx, payload)
	if err != nil {
		return "", err
	}
	if created.PlaceID == "" {
		return "", fmt.Errorf("create place %s: remote returned no id", place.Name())
	}
	return created.PlaceID, nil
}

func (u *newPlaceUploader) linkContactAndPlace(ctx context.Context, place *domain.Place, placeID string) error {
	contactID := place.CreationDetails().ContactID
	if contactID == "" {
		return nil
	}
	return u.client.LinkContact(ctx, placeID, contactID)
}

// replacementPlaceUploader replaces the primary contact of an existing place.
type replacementPlaceUploader struct {
	client driven.DirectoryClient
}

func (u *replacementPlaceUploader) handleContact(ctx context.Context, payload domain.PlacePayload) (string, error) {
	if payload.ID == "" {
		return "", nil
	}
	return u.client.CreateContact(ctx, payload)
}

func (u *replacementPlaceUploader) handlePlacePayload(ctx context.Context, place *domain.Place, payload domain.PlacePayload) (string, error) {
	contactID := place.CreationDetails().ContactID
	if contactID == "" {
		return "", fmt.Errorf("replace contact of %s: contact was not created", place.Name())
	}

	if _, err := u.client.UpdatePlace(ctx, payload, contactID); err != nil {
		return "", err
	}

	var (
		retired []string
		err     error
	)
	if place.Type.DeactivateUsersOnReplace {
		retired, err = u.client.DeactivateUsersWithPlace(ctx, payload.ID)
	} else {
		retired, err = u.client.DisableUsersWithPlace(ctx, payload.ID)
	}
	if err != nil {
		return "", fmt.Errorf("retire previous users of %s: %w", payload.ID, err)
	}
	logger.Debug("Retired %d previous user(s) of %s", len(retired), payload.ID)

	return payload.ID, nil
}

func (u *replacementPlaceUploader) linkContactAndPlace(_ context.Context, _ *domain.Place, _ string) error {
	return nil
}
