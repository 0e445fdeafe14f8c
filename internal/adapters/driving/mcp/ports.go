package mcp

import (
	"fmt"

	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Places stages and uploads places.
	Places driving.PlaceService

	// Sessions provides the logged in session.
	Sessions driving.SessionService

	// Clients builds a directory client for the session.
	Clients driven.DirectoryClientFactory
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Places == nil {
		return ErrMissingPlaceService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.Clients == nil {
		return ErrMissingClientFactory
	}
	return nil
}

// client builds a directory client for the stored session.
func (p *Ports) client() (driven.DirectoryClient, error) {
	session, err := p.Sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	client, err := p.Clients.NewClient(session)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client, nil
}
