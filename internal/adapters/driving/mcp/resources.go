package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for usermgr resources.
	uriScheme = "usermgr://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "session",
		Name:        "session",
		Description: "The logged in user and instance",
		MIMEType:    "application/json",
	}, s.handleSessionResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "places",
		Name:        "places",
		Description: "Places staged for upload on the logged in instance",
		MIMEType:    "application/json",
	}, s.handlePlacesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "places/{placeId}",
		Name:        "place",
		Description: "One staged place with its upload status",
		MIMEType:    "application/json",
	}, s.handlePlaceResource)
}

// handleSessionResource describes the stored session without its token.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	session, err := s.ports.Sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	info := struct {
		Domain      string   `json:"domain"`
		Username    string   `json:"username"`
		FacilityID  string   `json:"facility_id"`
		Roles       []string `json:"roles"`
		CoreVersion string   `json:"core_version"`
	}{
		Domain:      session.AuthInfo.Domain,
		Username:    session.Username,
		FacilityID:  session.FacilityID,
		Roles:       session.Roles,
		CoreVersion: session.CoreVersion,
	}
	return jsonResult(req.Params.URI, info)
}

// handlePlacesResource returns the staged places of the session's instance.
func (s *Server) handlePlacesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	session, err := s.ports.Sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	places, err := s.ports.Places.List(ctx, session.AuthInfo.Domain)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}

	infos := make([]PlaceOutput, len(places))
	for i, p := range places {
		infos[i] = toPlaceOutput(p)
	}
	return jsonResult(req.Params.URI, infos)
}

// handlePlaceResource returns one staged place.
func (s *Server) handlePlaceResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractPlaceID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	place, err := s.ports.Places.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting place: %w", err)
	}
	return jsonResult(req.Params.URI, toPlaceOutput(place))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPlaceID extracts the place ID from a URI like usermgr://places/{placeId}.
func extractPlaceID(uri string) string {
	const prefix = uriScheme + "places/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
