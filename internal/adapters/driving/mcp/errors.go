// Package mcp provides an MCP (Model Context Protocol) server adapter for usermgr.
// It lets AI assistants list staged places and upload them for the logged in session.
package mcp

import "errors"

// ErrMissingPlaceService is returned when the place service is not provided.
var ErrMissingPlaceService = errors.New("mcp: place service is required")

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")

// ErrMissingClientFactory is returned when the directory client factory is not provided.
var ErrMissingClientFactory = errors.New("mcp: directory client factory is required")
