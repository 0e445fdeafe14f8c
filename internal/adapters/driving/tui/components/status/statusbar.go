// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/styles"
)

// State represents the current run state for display.
type State string

const (
	StateUploading  State = "uploading"
	StateCancelling State = "cancelling"
	StateDone       State = "done"
	StateError      State = "error"
)

// Tally counts places by outcome.
type Tally struct {
	Total   int
	Success int
	Failure int
}

// Finished returns the number of places in a terminal state.
func (t Tally) Finished() int {
	return t.Success + t.Failure
}

// Bar displays run status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	tally   Tally
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateUploading,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the run state and counts.
func (s *Bar) renderLeft() string {
	counts := fmt.Sprintf("%d/%d done", s.tally.Finished(), s.tally.Total)
	if s.tally.Failure > 0 {
		counts += fmt.Sprintf(", %d failed", s.tally.Failure)
	}

	switch s.state {
	case StateCancelling:
		return s.styles.Warning.Render("Cancelling... " + counts)
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateDone:
		if s.tally.Failure > 0 {
			return s.styles.Warning.Render("Finished: " + counts)
		}
		return s.styles.Success.Render("Finished: " + counts)
	default:
		return s.styles.Normal.Render("Uploading " + counts)
	}
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetTally sets the place counts.
func (s *Bar) SetTally(tally Tally) {
	s.tally = tally
}

// Tally returns the place counts.
func (s *Bar) Tally() Tally {
	return s.tally
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}
