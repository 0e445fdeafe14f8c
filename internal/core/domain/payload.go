package domain

import "encoding/json"

// ContactPayload is the contact sub-document of a PlacePayload.
type ContactPayload struct {
	Name        string
	Type        string
	ContactType string
	Role        string
	Parent      string

	// Fields holds additional document properties.
	Fields map[string]any
}

// MarshalJSON flattens Fields into the document.
func (c ContactPayload) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(c.Fields)+5)
	for k, v := range c.Fields {
		doc[k] = v
	}
	doc["name"] = c.Name
	doc["type"] = c.Type
	doc["contact_type"] = c.ContactType
	if c.Role != "" {
		doc["role"] = c.Role
	}
	if c.Parent != "" {
		doc["parent"] = c.Parent
	}
	return json.Marshal(doc)
}

// PlacePayload is the document sent to the remote instance to create or
// update a place.
type PlacePayload struct {
	// ID is set when the payload targets an existing place.
	ID          string
	Name        string
	Type        string
	ContactType string
	Parent      string
	Contact     ContactPayload

	// ContactRef, when set, references an existing contact instead of
	// creating the embedded one.
	ContactRef string

	// Fields holds additional document properties.
	Fields map[string]any
}

// MarshalJSON flattens Fields into the document.
func (p PlacePayload) MarshalJSON() ([]byte, error) {
	doc := p.Document()
	if p.ContactRef != "" {
		doc["contact"] = p.ContactRef
	} else {
		doc["contact"] = p.Contact
	}
	if p.Parent != "" {
		doc["parent"] = p.Parent
	}
	return json.Marshal(doc)
}

// Document returns the place properties without contact and parent,
// the shape merged into an existing document on update.
func (p PlacePayload) Document() map[string]any {
	doc := make(map[string]any, len(p.Fields)+4)
	for k, v := range p.Fields {
		doc[k] = v
	}
	if p.ID != "" {
		doc["_id"] = p.ID
	}
	doc["name"] = p.Name
	doc["type"] = p.Type
	doc["contact_type"] = p.ContactType
	return doc
}
