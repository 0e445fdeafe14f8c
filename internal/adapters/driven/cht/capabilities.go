package cht

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// localDevelopmentVersion is reported by instances built from source.
const localDevelopmentVersion = "4.11.0-local-development"

var facilityQueryVersion = semver.MustParse("4.11.0")

// capabilities holds the behaviour that differs between core versions.
type capabilities struct {
	name         string
	usersAtPlace func(ctx context.Context, c *Client, placeID string) ([]string, error)
}

var (
	baseCapabilities = capabilities{
		name:         "base",
		usersAtPlace: listUsersFiltered,
	}

	facilityQueryCapabilities = capabilities{
		name:         "4.11",
		usersAtPlace: listUsersByFacility,
	}
)

// capabilitiesFor picks the capability set for a core version.
func capabilitiesFor(coreVersion string) (capabilities, error) {
	if coreVersion == localDevelopmentVersion {
		return facilityQueryCapabilities, nil
	}
	v, err := semver.NewVersion(coreVersion)
	if err != nil {
		return capabilities{}, fmt.Errorf("invalid core version %q: %w", coreVersion, err)
	}
	if !v.LessThan(facilityQueryVersion) {
		return facilityQueryCapabilities, nil
	}
	return baseCapabilities, nil
}

// userListing is one entry of the v1 user listing. Place is a single
// document on older instances and a list on multi-facility ones.
type userListing struct {
	ID    string          `json:"id"`
	Place json.RawMessage `json:"place"`
}

func (u userListing) assignedTo(placeID string) bool {
	type placeRef struct {
		ID string `json:"_id"`
	}

	var single placeRef
	if json.Unmarshal(u.Place, &single) == nil {
		return single.ID == placeID
	}
	var many []placeRef
	if json.Unmarshal(u.Place, &many) == nil {
		return slices.ContainsFunc(many, func(p placeRef) bool { return p.ID == placeID })
	}
	return false
}

// listUsersFiltered lists every user and keeps those assigned to placeID.
func listUsersFiltered(ctx context.Context, c *Client, placeID string) ([]string, error) {
	var users []userListing
	if err := c.get(ctx, "api/v1/users", nil, &users); err != nil {
		return nil, err
	}

	var ids []string
	for _, u := range users {
		if u.assignedTo(placeID) {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// listUsersByFacility asks the instance for the users of one facility.
func listUsersByFacility(ctx context.Context, c *Client, placeID string) ([]string, error) {
	var users []struct {
		ID string `json:"id"`
	}
	query := url.Values{"facility_id": {placeID}}
	if err := c.get(ctx, "api/v2/users", query, &users); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
