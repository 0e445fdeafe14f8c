package cht

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.DirectoryClient = (*Client)(nil)

// userDocPrefix prefixes the document id of every user.
const userDocPrefix = "org.couchdb.user:"

// Client talks to one CHT instance on behalf of a session.
type Client struct {
	session   *domain.Session
	baseURL   string
	caps      capabilities
	transport *transport
}

// NewClient creates a client for an established session. The session's
// core version selects the capability set.
func NewClient(session *domain.Session, cfg Config) (*Client, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}
	caps, err := capabilitiesFor(session.CoreVersion)
	if err != nil {
		return nil, err
	}

	return &Client{
		session:   session.Clone(),
		baseURL:   session.AuthInfo.BaseURL(),
		caps:      caps,
		transport: newTransport(cfg),
	}, nil
}

// Session returns a copy of the session the client acts for.
func (c *Client) Session() *domain.Session {
	return c.session.Clone()
}

// CoreVersion names the capability set chosen for the remote version.
func (c *Client) CoreVersion() string {
	return c.caps.name
}

// CreateContact creates the payload's contact. The contact is placed under
// the payload's id when set and under its parent otherwise.
func (c *Client) CreateContact(ctx context.Context, payload domain.PlacePayload) (string, error) {
	raw, err := json.Marshal(payload.Contact)
	if err != nil {
		return "", fmt.Errorf("marshal contact: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("marshal contact: %w", err)
	}
	delete(doc, "parent")
	doc["place"] = payload.ID
	if payload.ID == "" {
		doc["place"] = payload.Contact.Parent
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.write(ctx, http.MethodPost, "api/v1/people", nil, doc, &created); err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	return created.ID, nil
}

// CreatePlace creates a new place.
func (c *Client) CreatePlace(ctx context.Context, payload domain.PlacePayload) (domain.CreatedPlace, error) {
	var created struct {
		ID      string `json:"id"`
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := c.write(ctx, http.MethodPost, "api/v1/places", nil, payload, &created); err != nil {
		return domain.CreatedPlace{}, fmt.Errorf("create place: %w", err)
	}
	return domain.CreatedPlace{PlaceID: created.ID, ContactID: created.Contact.ID}, nil
}

// UpdatePlace merges the payload into the existing place document and
// makes contactID its primary contact.
func (c *Client) UpdatePlace(ctx context.Context, payload domain.PlacePayload, contactID string) (map[string]any, error) {
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: update requires a place id", domain.ErrInvalidInput)
	}
	doc, err := c.getDoc(ctx, payload.ID)
	if err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}

	previous := referencedID(doc["contact"])
	history := previousContacts(doc["user_attribution"])

	maps.Copy(doc, payload.Document())
	doc["contact"] = map[string]any{"_id": contactID}
	if previous != "" && previous != contactID {
		history = append(history, previous)
	}
	if len(history) > 0 {
		attribution := map[string]any{}
		if current, ok := doc["user_attribution"].(map[string]any); ok {
			attribution = maps.Clone(current)
		}
		attribution["previousPrimaryContacts"] = history
		doc["user_attribution"] = attribution
	}

	if err := c.putDoc(ctx, payload.ID, doc); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	return doc, nil
}

// LinkContact sets contactID as the primary contact of placeID.
func (c *Client) LinkContact(ctx context.Context, placeID, contactID string) error {
	doc, err := c.getDoc(ctx, placeID)
	if err != nil {
		return fmt.Errorf("link contact: %w", err)
	}
	if referencedID(doc["contact"]) == contactID {
		return nil
	}

	doc["contact"] = map[string]any{"_id": contactID}
	if err := c.putDoc(ctx, placeID, doc); err != nil {
		return fmt.Errorf("link contact: %w", err)
	}
	return nil
}

// CreateUser creates a user account.
func (c *Client) CreateUser(ctx context.Context, user *domain.UserPayload) error {
	if err := c.write(ctx, http.MethodPost, "api/v1/users", nil, user, nil); err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

// placeDoc is a place as returned by the contacts_by_type view.
type placeDoc struct {
	ID     string     `json:"_id"`
	Name   string     `json:"name"`
	Parent *parentRef `json:"parent"`
}

type parentRef struct {
	ID     string     `json:"_id"`
	Parent *parentRef `json:"parent"`
}

func (d placeDoc) lineage() []string {
	var lineage []string
	for p := d.Parent; p != nil && p.ID != ""; p = p.Parent {
		lineage = append(lineage, p.ID)
	}
	return lineage
}

// GetPlacesWithType lists every remote place of a contact type.
func (c *Client) GetPlacesWithType(ctx context.Context, placeType string) ([]domain.RemotePlace, error) {
	key, err := json.Marshal([]string{placeType})
	if err != nil {
		return nil, fmt.Errorf("encode view key: %w", err)
	}
	query := url.Values{
		"key":          {string(key)},
		"include_docs": {"true"},
	}

	var view struct {
		Rows []struct {
			Doc *placeDoc `json:"doc"`
		} `json:"rows"`
	}
	if err := c.get(ctx, "medic/_design/medic-client/_view/contacts_by_type", query, &view); err != nil {
		return nil, fmt.Errorf("list places of type %s: %w", placeType, err)
	}

	places := make([]domain.RemotePlace, 0, len(view.Rows))
	for _, row := range view.Rows {
		if row.Doc == nil {
			continue
		}
		places = append(places, domain.RemotePlace{
			ID:      row.Doc.ID,
			Name:    row.Doc.Name,
			Type:    domain.RemotePlaceRemote,
			Lineage: row.Doc.lineage(),
		})
	}
	return places, nil
}

// GetUsersAtPlace returns the user document ids assigned to a place.
func (c *Client) GetUsersAtPlace(ctx context.Context, placeID string) ([]string, error) {
	ids, err := c.caps.usersAtPlace(ctx, c, placeID)
	if err != nil {
		return nil, fmt.Errorf("list users at %s: %w", placeID, err)
	}
	return ids, nil
}

// DisableUsersWithPlace deletes every user assigned to a place.
func (c *Client) DisableUsersWithPlace(ctx context.Context, placeID string) ([]string, error) {
	return c.eachUserAt(ctx, placeID, func(username string) error {
		return c.write(ctx, http.MethodDelete, "api/v1/users/"+url.PathEscape(username), nil, nil, nil)
	})
}

// DeactivateUsersWithPlace replaces the roles of every user assigned to a
// place with the deactivated role.
func (c *Client) DeactivateUsersWithPlace(ctx context.Context, placeID string) ([]string, error) {
	body := map[string]any{"roles": []string{"deactivated"}}
	return c.eachUserAt(ctx, placeID, func(username string) error {
		return c.write(ctx, http.MethodPost, "api/v1/users/"+url.PathEscape(username), nil, body, nil)
	})
}

func (c *Client) eachUserAt(ctx context.Context, placeID string, fn func(username string) error) ([]string, error) {
	ids, err := c.GetUsersAtPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	done := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := fn(strings.TrimPrefix(id, userDocPrefix)); err != nil {
			return done, fmt.Errorf("update user %s: %w", id, err)
		}
		done = append(done, id)
	}
	return done, nil
}

// DeleteDoc deletes a document at its current revision.
func (c *Client) DeleteDoc(ctx context.Context, docID string) error {
	doc, err := c.getDoc(ctx, docID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	rev, _ := doc["_rev"].(string)

	var result struct {
		OK bool `json:"ok"`
	}
	query := url.Values{"rev": {rev}}
	if err := c.write(ctx, http.MethodDelete, docPath(docID), query, nil, &result); err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	if !result.OK {
		return fmt.Errorf("delete %s: instance did not acknowledge", docID)
	}
	return nil
}

func (c *Client) getDoc(ctx context.Context, docID string) (map[string]any, error) {
	var doc map[string]any
	if err := c.get(ctx, docPath(docID), nil, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, docID)
	}
	return doc, nil
}

func (c *Client) putDoc(ctx context.Context, docID string, doc map[string]any) error {
	var result struct {
		OK bool `json:"ok"`
	}
	if err := c.write(ctx, http.MethodPut, docPath(docID), nil, doc, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("instance did not acknowledge write of %s", docID)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.write(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) write(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.transport.do(ctx, request{
		method: method,
		url:    c.url(path, query),
		token:  c.session.SessionToken,
		body:   body,
	}, out)
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func docPath(docID string) string {
	return "medic/" + url.PathEscape(docID)
}

// referencedID reads the id of a reference stored either as a string or
// as a {"_id": ...} object.
func referencedID(ref any) string {
	switch v := ref.(type) {
	case string:
		return v
	case map[string]any:
		id, _ := v["_id"].(string)
		return id
	default:
		return ""
	}
}

func previousContacts(attribution any) []string {
	m, ok := attribution.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := m["previousPrimaryContacts"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if id, ok := item.(string); ok {
			out = append(out, id)
		}
	}
	return out
}
