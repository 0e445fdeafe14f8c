// Package tui provides an interactive terminal view of an upload run.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

// Ports aggregates the services required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Places uploads the selected places.
	Places driving.PlaceService

	// Uploads publishes row and table changes while the upload runs.
	Uploads driving.UploadManager

	// Client acts for the logged in session.
	Client driven.DirectoryClient
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Places == nil {
		return ErrMissingPlaceService
	}
	if p.Uploads == nil {
		return ErrMissingUploadManager
	}
	if p.Client == nil {
		return ErrMissingClient
	}
	return nil
}
