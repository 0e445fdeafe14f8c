// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

// RowChanged is sent when the upload status of one place changed.
type RowChanged struct {
	PlaceID string
}

// TableChanged is sent when the upload status of several places changed.
type TableChanged struct{}

// UploadFinished is sent when the upload run returned.
type UploadFinished struct {
	Err error
}
