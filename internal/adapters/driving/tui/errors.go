package tui

import "errors"

// ErrMissingPlaceService is returned when the place service is not provided.
var ErrMissingPlaceService = errors.New("tui: place service is required")

// ErrMissingUploadManager is returned when the upload manager is not provided.
var ErrMissingUploadManager = errors.New("tui: upload manager is required")

// ErrMissingClient is returned when the directory client is not provided.
var ErrMissingClient = errors.New("tui: directory client is required")
