package domain

import "slices"

// RemotePlaceType records where a RemotePlace was observed.
type RemotePlaceType string

const (
	// RemotePlaceRemote was listed by the remote instance.
	RemotePlaceRemote RemotePlaceType = "remote"

	// RemotePlaceLocal was created by this process and appended to the cache.
	RemotePlaceLocal RemotePlaceType = "local"
)

// RemotePlace is the minimal shape of a place on the remote instance.
type RemotePlace struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type RemotePlaceType `json:"type"`

	// Lineage lists ancestor ids from the direct parent up to the root.
	Lineage []string `json:"lineage"`
}

// LineageWithSelf returns the place id followed by its lineage; the
// lineage of a child of this place.
func (r RemotePlace) LineageWithSelf() []string {
	return append([]string{r.ID}, r.Lineage...)
}

// HasAncestor reports whether id appears in the lineage.
func (r RemotePlace) HasAncestor(id string) bool {
	return slices.Contains(r.Lineage, id)
}

// CreatedPlace is the result of creating a place remotely.
type CreatedPlace struct {
	PlaceID   string
	ContactID string
}
