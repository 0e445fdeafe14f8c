package cht

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Ensure Authenticator and Factory implement the interfaces.
var (
	_ driven.Authenticator          = (*Authenticator)(nil)
	_ driven.DirectoryClientFactory = (*Factory)(nil)
)

// AuthCookieName is the session cookie issued on login.
const AuthCookieName = "AuthSession"

// Authenticator performs the bootstrap calls that establish a session.
type Authenticator struct {
	transport *transport
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{transport: newTransport(cfg)}
}

// Login exchanges credentials for the session cookie, returned in
// "AuthSession=<value>" form ready for the Cookie header.
func (a *Authenticator) Login(ctx context.Context, authInfo domain.AuthenticationInfo, username, password string) (string, error) {
	resp, err := a.transport.send(ctx, request{
		method: http.MethodPost,
		url:    authInfo.BaseURL() + "_session",
		body:   map[string]string{"name": username, "password": password},
	})
	if err != nil {
		return "", fmt.Errorf("login to %s: %w", authInfo.Domain, err)
	}

	for _, cookie := range (&http.Response{Header: resp.header}).Cookies() {
		if cookie.Name == AuthCookieName && cookie.Value != "" {
			return cookie.Name + "=" + cookie.Value, nil
		}
	}
	return "", nil
}

// GetUserSettings reads the user's settings document.
func (a *Authenticator) GetUserSettings(ctx context.Context, authInfo domain.AuthenticationInfo, token, username string) (driven.UserSettings, error) {
	var doc struct {
		FacilityID json.RawMessage `json:"facility_id"`
		Roles      []string        `json:"roles"`
	}
	err := a.transport.do(ctx, request{
		method: http.MethodGet,
		url:    authInfo.BaseURL() + docPath(userDocPrefix+username),
		token:  token,
	}, &doc)
	if err != nil {
		return driven.UserSettings{}, fmt.Errorf("read settings of %s: %w", username, err)
	}

	return driven.UserSettings{
		FacilityID: firstFacility(doc.FacilityID),
		Roles:      doc.Roles,
	}, nil
}

// firstFacility reads facility_id stored as a string or, on multi-facility
// instances, as a list.
func firstFacility(raw json.RawMessage) string {
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		for _, id := range many {
			if id = strings.TrimSpace(id); id != "" {
				return id
			}
		}
	}
	return ""
}

// GetCoreVersion reads the core version from the monitoring endpoint.
func (a *Authenticator) GetCoreVersion(ctx context.Context, authInfo domain.AuthenticationInfo, token string) (string, error) {
	var monitoring struct {
		Version struct {
			App string `json:"app"`
		} `json:"version"`
	}
	err := a.transport.do(ctx, request{
		method: http.MethodGet,
		url:    authInfo.BaseURL() + "api/v2/monitoring",
		token:  token,
	}, &monitoring)
	if err != nil {
		return "", fmt.Errorf("read core version: %w", err)
	}
	return monitoring.Version.App, nil
}

// Factory builds clients sharing one configuration.
type Factory struct {
	Config Config
}

// NewClient creates a client for session.
func (f *Factory) NewClient(session *domain.Session) (driven.DirectoryClient, error) {
	client, err := NewClient(session, f.Config)
	if err != nil {
		return nil, err
	}
	return client, nil
}
