package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// UploadState tracks a place through an upload run.
type UploadState string

const (
	UploadPending    UploadState = "PENDING"
	UploadScheduled  UploadState = "SCHEDULED"
	UploadInProgress UploadState = "IN_PROGRESS"
	UploadSuccess    UploadState = "SUCCESS"
	UploadFailure    UploadState = "FAILURE"
)

// IsTerminal reports whether the state ends an upload attempt.
func (s UploadState) IsTerminal() bool {
	return s == UploadSuccess || s == UploadFailure
}

// CreationDetails records which remote writes already succeeded for a place.
// A set field means its step must not be repeated.
type CreationDetails struct {
	ContactID string `json:"contactId,omitempty"`
	PlaceID   string `json:"placeId,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
}

// Contact is the primary contact staged with a place.
type Contact struct {
	Properties map[string]string `json:"properties"`
}

// Name returns the contact's name property.
func (c Contact) Name() string {
	return c.Properties["name"]
}

// HierarchyProperties holds the resolved hierarchy of a place.
type HierarchyProperties struct {
	// Names holds the user-entered hierarchy values keyed by property name.
	Names map[string]string `json:"names,omitempty"`

	// Parent is the resolved direct parent.
	Parent *RemotePlace `json:"parent,omitempty"`

	// Replacement is the existing remote place whose primary contact this place replaces.
	Replacement *RemotePlace `json:"replacement,omitempty"`
}

// Place is one locally staged provisioning unit.
//
// Identity, schema and properties are plain fields. Upload status
// (state, creation details, upload error) is guarded so an observer can
// read it while an upload is running.
type Place struct {
	ID         string
	Type       ContactType
	Properties map[string]string
	Contact    Contact
	Hierarchy  HierarchyProperties

	// ValidationErrors maps a property name to its problem.
	ValidationErrors map[string]string

	mu              sync.RWMutex
	state           UploadState
	creationDetails CreationDetails
	uploadError     string
}

// NewPlace creates an empty pending place of the given type.
func NewPlace(id string, contactType ContactType) *Place {
	return &Place{
		ID:               id,
		Type:             contactType,
		Properties:       make(map[string]string),
		Contact:          Contact{Properties: make(map[string]string)},
		ValidationErrors: make(map[string]string),
		state:            UploadPending,
	}
}

// Name returns the place's name property.
func (p *Place) Name() string {
	return p.Properties["name"]
}

// IsDependant reports whether the place replaces an existing remote place.
// Dependants are uploaded after every independent place.
func (p *Place) IsDependant() bool {
	return p.Hierarchy.Replacement != nil
}

// IsCreated reports whether every remote write for the place succeeded.
func (p *Place) IsCreated() bool {
	d := p.CreationDetails()
	return d.ContactID != "" && d.PlaceID != "" && d.Username != ""
}

// HasValidationErrors reports whether the place failed validation.
func (p *Place) HasValidationErrors() bool {
	return len(p.ValidationErrors) > 0
}

// State returns the current upload state.
func (p *Place) State() UploadState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetState moves the place to a new upload state.
func (p *Place) SetState(state UploadState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

// UploadError returns the last upload failure, if any.
func (p *Place) UploadError() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.uploadError
}

// SetUploadError records an upload failure.
func (p *Place) SetUploadError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploadError = msg
}

// ClearUploadError removes the last upload failure.
func (p *Place) ClearUploadError() {
	p.SetUploadError("")
}

// CreationDetails returns a copy of the creation details.
func (p *Place) CreationDetails() CreationDetails {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creationDetails
}

// SetContactID records the created contact. A set value is never replaced.
func (p *Place) SetContactID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.creationDetails.ContactID == "" {
		p.creationDetails.ContactID = id
	}
}

// SetPlaceID records the created or updated place. A set value is never replaced.
func (p *Place) SetPlaceID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.creationDetails.PlaceID == "" {
		p.creationDetails.PlaceID = id
	}
}

// SetCredentials records the created user account. Set values are never replaced.
func (p *Place) SetCredentials(username, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.creationDetails.Username == "" {
		p.creationDetails.Username = username
		p.creationDetails.Password = password
	}
}

// Restore loads persisted upload status onto a place. Only stores call it.
func (p *Place) Restore(state UploadState, details CreationDetails, uploadError string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	p.creationDetails = details
	p.uploadError = uploadError
}

// Validate recomputes ValidationErrors from the contact type and the
// resolved hierarchy. Callers add resolution errors afterwards.
func (p *Place) Validate() {
	errs := make(map[string]string)
	for _, prop := range p.Type.PlaceProperties {
		if prop.Required && strings.TrimSpace(p.Properties[prop.DocName]) == "" {
			errs["place_"+prop.DocName] = fmt.Sprintf("Required property %q is missing", prop.CSVName)
		}
	}
	for _, prop := range p.Type.ContactProperties {
		if prop.Required && strings.TrimSpace(p.Contact.Properties[prop.DocName]) == "" {
			errs["contact_"+prop.DocName] = fmt.Sprintf("Required property %q is missing", prop.CSVName)
		}
	}
	if parent, ok := p.Type.ParentLevel(); ok && parent.Required && p.Hierarchy.Parent == nil {
		errs["hierarchy_"+parent.PropertyName] = fmt.Sprintf("Cannot find %s %q", parent.FriendlyName, p.Hierarchy.Names[parent.PropertyName])
	}
	p.ValidationErrors = errs
}

// Lineage returns the lineage the place will have once created.
func (p *Place) Lineage() []string {
	if p.Hierarchy.Replacement != nil {
		return append([]string(nil), p.Hierarchy.Replacement.Lineage...)
	}
	if p.Hierarchy.Parent != nil {
		return p.Hierarchy.Parent.LineageWithSelf()
	}
	return nil
}

// AsRemotePlace returns the minimal shape of the created place.
func (p *Place) AsRemotePlace() RemotePlace {
	return RemotePlace{
		ID:      p.CreationDetails().PlaceID,
		Name:    p.Name(),
		Type:    RemotePlaceLocal,
		Lineage: p.Lineage(),
	}
}

// AsPayload builds the remote payload for the place.
// username is recorded as the attribution of the write.
func (p *Place) AsPayload(username string) PlacePayload {
	attribution := map[string]any{
		"tool":         "usermgr",
		"username":     username,
		"created_time": time.Now().UTC().UnixMilli(),
	}

	contactFields := make(map[string]any, len(p.Contact.Properties))
	for k, v := range p.Contact.Properties {
		if k != "name" {
			contactFields[k] = v
		}
	}
	contactFields["user_attribution"] = attribution

	placeFields := make(map[string]any, len(p.Properties))
	for k, v := range p.Properties {
		if k != "name" {
			placeFields[k] = v
		}
	}
	placeFields["user_attribution"] = attribution

	payload := PlacePayload{
		Name:        p.Name(),
		Type:        "contact",
		ContactType: p.Type.Name,
		Contact: ContactPayload{
			Name:        p.Contact.Name(),
			Type:        "contact",
			ContactType: p.Type.ContactType,
			Role:        p.Type.ContactRole,
			Fields:      contactFields,
		},
		Fields: placeFields,
	}
	if p.Hierarchy.Parent != nil {
		payload.Parent = p.Hierarchy.Parent.ID
		payload.Contact.Parent = p.Hierarchy.Parent.ID
	}
	if p.Hierarchy.Replacement != nil {
		payload.ID = p.Hierarchy.Replacement.ID
		if len(p.Hierarchy.Replacement.Lineage) > 0 {
			payload.Parent = p.Hierarchy.Replacement.Lineage[0]
		}
	}
	return payload
}

// PlaceSnapshot is the persisted form of a place.
type PlaceSnapshot struct {
	ID                string              `json:"id"`
	Type              string              `json:"type"`
	Properties        map[string]string   `json:"properties"`
	ContactProperties map[string]string   `json:"contact"`
	Hierarchy         HierarchyProperties `json:"hierarchy"`
	ValidationErrors  map[string]string   `json:"validationErrors,omitempty"`
	State             UploadState         `json:"state"`
	CreationDetails   CreationDetails     `json:"creationDetails"`
	UploadError       string              `json:"uploadError,omitempty"`
}

// Snapshot returns a copy of the place that shares no maps with it.
func (p *Place) Snapshot() PlaceSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PlaceSnapshot{
		ID:                p.ID,
		Type:              p.Type.Name,
		Properties:        maps.Clone(p.Properties),
		ContactProperties: maps.Clone(p.Contact.Properties),
		Hierarchy: HierarchyProperties{
			Names:       maps.Clone(p.Hierarchy.Names),
			Parent:      cloneRemotePlace(p.Hierarchy.Parent),
			Replacement: cloneRemotePlace(p.Hierarchy.Replacement),
		},
		ValidationErrors: maps.Clone(p.ValidationErrors),
		State:            p.state,
		CreationDetails:  p.creationDetails,
		UploadError:      p.uploadError,
	}
}

// PlaceFromSnapshot rebuilds a place of the given contact type.
func PlaceFromSnapshot(s PlaceSnapshot, contactType ContactType) *Place {
	p := NewPlace(s.ID, contactType)
	maps.Copy(p.Properties, s.Properties)
	maps.Copy(p.Contact.Properties, s.ContactProperties)
	maps.Copy(p.ValidationErrors, s.ValidationErrors)
	p.Hierarchy = HierarchyProperties{
		Names:       maps.Clone(s.Hierarchy.Names),
		Parent:      cloneRemotePlace(s.Hierarchy.Parent),
		Replacement: cloneRemotePlace(s.Hierarchy.Replacement),
	}
	if s.State == "" {
		s.State = UploadPending
	}
	p.Restore(s.State, s.CreationDetails, s.UploadError)
	return p
}

func cloneRemotePlace(r *RemotePlace) *RemotePlace {
	if r == nil {
		return nil
	}
	c := *r
	c.Lineage = slices.Clone(r.Lineage)
	return &c
}
