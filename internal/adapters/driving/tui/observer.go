package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Observer forwards upload notifications into a running program.
type Observer struct {
	send func(tea.Msg)
}

var _ driven.UploadObserver = (*Observer)(nil)

// NewObserver creates an observer that delivers messages with send,
// normally (*tea.Program).Send.
func NewObserver(send func(tea.Msg)) *Observer {
	return &Observer{send: send}
}

// RowChanged implements driven.UploadObserver.
func (o *Observer) RowChanged(placeID string) {
	o.send(messages.RowChanged{PlaceID: placeID})
}

// TableChanged implements driven.UploadObserver.
func (o *Observer) TableChanged() {
	o.send(messages.TableChanged{})
}
