package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ContactProperty describes one property of a place or its contact.
type ContactProperty struct {
	// CSVName is the column or form field the value is read from.
	CSVName string `toml:"csv_name" json:"csv_name"`

	// DocName is the property name on the remote document.
	DocName string `toml:"doc_name" json:"doc_name"`

	// Type is a free-form value type hint (e.g. "name", "phone", "string").
	Type string `toml:"type" json:"type"`

	// Required marks the property as mandatory for upload.
	Required bool `toml:"required" json:"required"`
}

// HierarchyLevel describes one ancestor of a contact type.
// Level 1 is the direct parent.
type HierarchyLevel struct {
	PropertyName string `toml:"property_name" json:"property_name"`
	FriendlyName string `toml:"friendly_name" json:"friendly_name"`
	ContactType  string `toml:"contact_type" json:"contact_type"`
	Required     bool   `toml:"required" json:"required"`
	Level        int    `toml:"level" json:"level"`
}

// ContactType is the schema a place is staged, validated and uploaded against.
type ContactType struct {
	// Name is the remote contact_type of the place (e.g. "c_community_health_unit").
	Name string `toml:"name" json:"name"`

	// Friendly is the display name.
	Friendly string `toml:"friendly" json:"friendly"`

	// ContactType is the remote contact_type of the primary contact.
	ContactType string `toml:"contact_type" json:"contact_type"`

	// ContactRole is written on the contact document as its role.
	ContactRole string `toml:"contact_role" json:"contact_role"`

	// UserRole lists the roles given to the created user account.
	UserRole []string `toml:"user_role" json:"user_role"`

	// UsernameFromPlace derives the username from the place name instead of the contact name.
	UsernameFromPlace bool `toml:"username_from_place" json:"username_from_place"`

	// DeactivateUsersOnReplace deactivates (instead of disabling) the previous
	// users of a place when its primary contact is replaced.
	DeactivateUsersOnReplace bool `toml:"deactivate_users_on_replace" json:"deactivate_users_on_replace"`

	Hierarchy         []HierarchyLevel  `toml:"hierarchy" json:"hierarchy"`
	PlaceProperties   []ContactProperty `toml:"place_properties" json:"place_properties"`
	ContactProperties []ContactProperty `toml:"contact_properties" json:"contact_properties"`
}

// ParentLevel returns the level 1 hierarchy entry.
func (c ContactType) ParentLevel() (HierarchyLevel, bool) {
	for _, h := range c.Hierarchy {
		if h.Level == 1 {
			return h, true
		}
	}
	return HierarchyLevel{}, false
}

// HierarchyDesc returns the hierarchy ordered from the root down to the parent.
func (c ContactType) HierarchyDesc() []HierarchyLevel {
	out := append([]HierarchyLevel(nil), c.Hierarchy...)
	sort.Slice(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out
}

// AuthenticationInfo identifies a remote instance a user can log in to.
type AuthenticationInfo struct {
	Friendly string `toml:"friendly" json:"friendly"`
	Domain   string `toml:"domain" json:"domain"`
	UseHTTP  bool   `toml:"use_http" json:"useHttp"`
}

// BaseURL returns the instance root with a trailing slash.
func (a AuthenticationInfo) BaseURL() string {
	scheme := "https"
	if a.UseHTTP {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/", scheme, strings.TrimSuffix(a.Domain, "/"))
}

// UploadConfig tunes the upload orchestrator.
type UploadConfig struct {
	// BatchSize is the number of places uploaded concurrently.
	BatchSize int `toml:"batch_size" json:"batch_size"`

	// RequestsPerSecond throttles remote requests. Zero uses the client default.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// DefaultUploadBatchSize keeps uploads serial; the remote instance does not
// document its write concurrency guarantees.
const DefaultUploadBatchSize = 1

// AppConfig is the full application configuration.
type AppConfig struct {
	Upload       UploadConfig         `toml:"upload" json:"upload"`
	Domains      []AuthenticationInfo `toml:"domains" json:"domains"`
	ContactTypes []ContactType        `toml:"contact_types" json:"contact_types"`
}

// ContactType looks up a contact type by name.
func (c *AppConfig) ContactType(name string) (ContactType, error) {
	for _, ct := range c.ContactTypes {
		if ct.Name == name {
			return ct, nil
		}
	}
	return ContactType{}, fmt.Errorf("%w: unrecognized contact type %q", ErrUnsupportedType, name)
}

// Domain looks up authentication info by domain, falling back to an
// https instance at that domain when it is not configured.
func (c *AppConfig) Domain(domain string) AuthenticationInfo {
	for _, d := range c.Domains {
		if d.Domain == domain {
			return d
		}
	}
	return AuthenticationInfo{Friendly: domain, Domain: domain}
}

// BatchSize returns the configured batch size or the default.
func (c *AppConfig) BatchSize() int {
	if c.Upload.BatchSize < 1 {
		return DefaultUploadBatchSize
	}
	return c.Upload.BatchSize
}
