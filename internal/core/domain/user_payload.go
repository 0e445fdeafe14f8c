package domain

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
)

const (
	passwordLength  = 12
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordLower   = "abcdefghijkmnopqrstuvwxyz"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%&*?"
)

// UserPayload holds the candidate credentials for a remote user account.
//
// The username and password change only through MakeUsernameMoreComplex
// and RegeneratePassword, both of which count as a retry.
type UserPayload struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
	Place    string   `json:"place"`
	Contact  string   `json:"contact"`
	FullName string   `json:"fullname,omitempty"`
	Phone    string   `json:"phone,omitempty"`

	baseUsername string
	suffix       int
	retries      int
}

// NewUserPayload derives credentials for the primary contact of place.
func NewUserPayload(place *Place, placeID, contactID string) *UserPayload {
	source := place.Contact.Name()
	if place.Type.UsernameFromPlace {
		source = place.Name()
	}
	return newUserPayload(source, place.Type.UserRole, placeID, contactID,
		place.Contact.Name(), place.Contact.Properties["phone"])
}

// NewNamedUserPayload derives credentials for a contact that is not staged as a place.
func NewNamedUserPayload(name string, roles []string, placeID, contactID string) *UserPayload {
	return newUserPayload(name, roles, placeID, contactID, name, "")
}

func newUserPayload(source string, roles []string, placeID, contactID, fullName, phone string) *UserPayload {
	username := NormalizeUsername(source)
	return &UserPayload{
		Username:     username,
		Password:     GeneratePassword(),
		Roles:        append([]string(nil), roles...),
		Place:        placeID,
		Contact:      contactID,
		FullName:     fullName,
		Phone:        phone,
		baseUsername: username,
	}
}

// MakeUsernameMoreComplex moves to the next numbered variant of the
// username: name, name1, name2, and so on.
func (u *UserPayload) MakeUsernameMoreComplex() {
	if u.baseUsername == "" {
		u.baseUsername = u.Username
	}
	u.suffix++
	u.retries++
	u.Username = u.baseUsername + strconv.Itoa(u.suffix)
}

// RegeneratePassword replaces the password with a fresh one.
func (u *UserPayload) RegeneratePassword() {
	u.retries++
	u.Password = GeneratePassword()
}

// Retries returns how many times the credentials were mutated.
func (u *UserPayload) Retries() int {
	return u.retries
}

// NormalizeUsername lowercases a display name and folds every run of
// characters outside [a-z0-9] into a single underscore.
func NormalizeUsername(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// GeneratePassword returns a random password containing upper and lower
// case letters, digits and a symbol.
func GeneratePassword() string {
	all := passwordUpper + passwordLower + passwordDigits + passwordSymbols
	out := []byte{
		pick(passwordUpper),
		pick(passwordLower),
		pick(passwordDigits),
		pick(passwordSymbols),
	}
	for len(out) < passwordLength {
		out = append(out, pick(all))
	}
	for i := len(out) - 1; i > 0; i-- {
		j := randInt(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func pick(charset string) byte {
	return charset[randInt(len(charset))]
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}
