package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

const (
	// RoleUserManager is required to manage users unless the user is an admin.
	RoleUserManager = "user_manager"

	// RoleAdmin and RoleOnlineAdmin mark an administrator.
	RoleAdmin       = "admin"
	RoleOnlineAdmin = "_admin"
)

// Session is an authenticated identity on one remote instance.
//
// Sessions serialize to a deterministic JSON string so they can be
// persisted and restored without another login.
type Session struct {
	AuthInfo     AuthenticationInfo `json:"authInfo"`
	Username     string             `json:"username"`
	SessionToken string             `json:"sessionToken"`
	FacilityID   string             `json:"facilityId"`
	Roles        []string           `json:"roles"`
	CoreVersion  string             `json:"coreVersion"`
}

// NewSession builds a session with normalized roles.
func NewSession(authInfo AuthenticationInfo, username, token, facilityID string, roles []string, coreVersion string) *Session {
	return &Session{
		AuthInfo:     authInfo,
		Username:     username,
		SessionToken: token,
		FacilityID:   facilityID,
		Roles:        normalizeRoles(roles),
		CoreVersion:  coreVersion,
	}
}

// IsAdmin reports whether the session holds an administrator role.
func (s *Session) IsAdmin() bool {
	return slices.Contains(s.Roles, RoleAdmin) || slices.Contains(s.Roles, RoleOnlineAdmin)
}

// HasRole reports whether the session holds role.
func (s *Session) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

// IsPlaceAuthorized reports whether the session may act on place.
// Admins may act anywhere; everyone else only on their facility and
// the places beneath it.
func (s *Session) IsPlaceAuthorized(place RemotePlace) bool {
	if s.IsAdmin() {
		return true
	}
	if s.FacilityID == "" {
		return false
	}
	return place.ID == s.FacilityID || place.HasAncestor(s.FacilityID)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Roles = append([]string(nil), s.Roles...)
	return &c
}

// String serializes the session. ParseSession reverses it.
func (s *Session) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}

// ParseSession restores a session serialized with String.
func ParseSession(raw string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: malformed session: %v", ErrInvalidInput, err)
	}
	if s.AuthInfo.Domain == "" || s.SessionToken == "" {
		return nil, fmt.Errorf("%w: session is missing domain or token", ErrInvalidInput)
	}
	s.Roles = normalizeRoles(s.Roles)
	return &s, nil
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != "" && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}
