package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// ListPlacesInput is the input schema for the list_places tool.
type ListPlacesInput struct {
	State string `json:"state,omitempty" jsonschema:"only list places in this upload state (PENDING, SUCCESS, FAILURE)"`
}

// ListPlacesOutput is the output schema for the list_places tool.
type ListPlacesOutput struct {
	Places []PlaceOutput `json:"places"`
	Count  int           `json:"count"`
}

// UploadPlacesInput is the input schema for the upload_places tool.
type UploadPlacesInput struct {
	IDs []string `json:"ids,omitempty" jsonschema:"ids of the staged places to upload; every staged place when empty"`
}

// UploadPlacesOutput is the output schema for the upload_places tool.
type UploadPlacesOutput struct {
	Places    []PlaceOutput `json:"places"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// PlaceOutput represents one staged place. Passwords are never returned.
type PlaceOutput struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Name             string            `json:"name"`
	Contact          string            `json:"contact"`
	State            string            `json:"state"`
	PlaceID          string            `json:"place_id,omitempty"`
	Username         string            `json:"username,omitempty"`
	UploadError      string            `json:"upload_error,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
	Replaces         string            `json:"replaces,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_places",
		Description: "List the places staged for upload on the logged in instance",
	}, s.handleListPlaces)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upload_places",
		Description: "Create staged places, their primary contacts and user accounts on the logged in instance",
	}, s.handleUploadPlaces)
}

// handleListPlaces handles the list_places tool invocation.
func (s *Server) handleListPlaces(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListPlacesInput,
) (*mcp.CallToolResult, ListPlacesOutput, error) {
	session, err := s.ports.Sessions.Current()
	if err != nil {
		return nil, ListPlacesOutput{}, err
	}

	places, err := s.ports.Places.List(ctx, session.AuthInfo.Domain)
	if err != nil {
		return nil, ListPlacesOutput{}, err
	}

	output := ListPlacesOutput{Places: make([]PlaceOutput, 0, len(places))}
	for _, p := range places {
		if input.State != "" && string(p.State()) != input.State {
			continue
		}
		output.Places = append(output.Places, toPlaceOutput(p))
	}
	output.Count = len(output.Places)

	return nil, output, nil
}

// handleUploadPlaces handles the upload_places tool invocation.
func (s *Server) handleUploadPlaces(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadPlacesInput,
) (*mcp.CallToolResult, UploadPlacesOutput, error) {
	client, err := s.ports.client()
	if err != nil {
		return nil, UploadPlacesOutput{}, err
	}

	places, err := s.ports.Places.Upload(ctx, client, input.IDs)
	if err != nil {
		return nil, UploadPlacesOutput{}, fmt.Errorf("upload aborted: %w", err)
	}

	output := UploadPlacesOutput{Places: make([]PlaceOutput, len(places))}
	for i, p := range places {
		output.Places[i] = toPlaceOutput(p)
		switch p.State() {
		case domain.UploadSuccess:
			output.Succeeded++
		case domain.UploadFailure:
			output.Failed++
		}
	}

	return nil, output, nil
}

func toPlaceOutput(p *domain.Place) PlaceOutput {
	details := p.CreationDetails()
	out := PlaceOutput{
		ID:               p.ID,
		Type:             p.Type.Name,
		Name:             p.Name(),
		Contact:          p.Contact.Name(),
		State:            string(p.State()),
		PlaceID:          details.PlaceID,
		Username:         details.Username,
		UploadError:      p.UploadError(),
		ValidationErrors: p.ValidationErrors,
	}
	if r := p.Hierarchy.Replacement; r != nil {
		out.Replaces = r.ID
	}
	if len(out.ValidationErrors) == 0 {
		out.ValidationErrors = nil
	}
	return out
}
