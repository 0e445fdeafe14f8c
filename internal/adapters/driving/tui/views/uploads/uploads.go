// Package uploads provides the upload progress view for the TUI.
package uploads

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// progressWidth is the width of the progress bar in cells.
const progressWidth = 40

// View lists the places of an upload run with their state.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	places   []*domain.Place
	selected int

	showDetails  bool
	failuresOnly bool

	width  int
	height int
}

// NewView creates an upload view over places. The view reads place state
// on every render, so it reflects changes made by a running upload.
func NewView(s *styles.Styles, places []*domain.Place) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		places: places,
		width:  80,
		height: 24,
	}
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Update handles navigation keys.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	rows := v.Visible()
	switch {
	case keymap.Matches(keyMsg.String(), v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(keyMsg.String(), v.keymap.Down):
		if v.selected < len(rows)-1 {
			v.selected++
		}
	case keymap.Matches(keyMsg.String(), v.keymap.Details):
		v.showDetails = !v.showDetails
	case keymap.Matches(keyMsg.String(), v.keymap.FailuresOnly):
		v.failuresOnly = !v.failuresOnly
		v.selected = 0
	}
	return v, nil
}

// Visible returns the places currently listed.
func (v *View) Visible() []*domain.Place {
	if !v.failuresOnly {
		return v.places
	}
	return slices.DeleteFunc(slices.Clone(v.places), func(p *domain.Place) bool {
		return p.State() != domain.UploadFailure
	})
}

// Selected returns the highlighted place, or nil when nothing is listed.
func (v *View) Selected() *domain.Place {
	rows := v.Visible()
	if v.selected < 0 || v.selected >= len(rows) {
		return nil
	}
	return rows[v.selected]
}

// ShowDetails reports whether the detail pane is open.
func (v *View) ShowDetails() bool {
	return v.showDetails
}

// FailuresOnly reports whether only failed places are listed.
func (v *View) FailuresOnly() bool {
	return v.failuresOnly
}

// Tally counts the places by outcome.
func (v *View) Tally() status.Tally {
	t := status.Tally{Total: len(v.places)}
	for _, p := range v.places {
		switch p.State() {
		case domain.UploadSuccess:
			t.Success++
		case domain.UploadFailure:
			t.Failure++
		}
	}
	return t
}

// View renders the progress bar, the place table and the detail pane.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Upload"))
	b.WriteString("\n\n")
	b.WriteString(v.renderProgress())
	b.WriteString("\n\n")

	rows := v.Visible()
	if len(rows) == 0 {
		if v.failuresOnly {
			b.WriteString(v.styles.Muted.Render("No failed places"))
		} else {
			b.WriteString(v.styles.Muted.Render("No places to upload"))
		}
		return b.String()
	}

	b.WriteString(v.styles.Header.Render(v.formatRow("STATE", "TYPE", "NAME", "CONTACT", "USERNAME")))
	b.WriteString("\n")
	for i, p := range rows {
		b.WriteString(v.renderRow(p, i == v.selected))
		b.WriteString("\n")
	}

	if v.showDetails {
		if p := v.Selected(); p != nil {
			b.WriteString("\n")
			b.WriteString(v.renderDetails(p))
		}
	}
	return b.String()
}

func (v *View) renderProgress() string {
	t := v.Tally()
	filled := 0
	if t.Total > 0 {
		filled = t.Finished() * progressWidth / t.Total
	}
	bar := v.styles.ProgressFilled.Render(strings.Repeat("█", filled)) +
		v.styles.ProgressEmpty.Render(strings.Repeat("░", progressWidth-filled))
	return fmt.Sprintf("%s %d/%d", bar, t.Finished(), t.Total)
}

func (v *View) renderRow(p *domain.Place, selected bool) string {
	state := p.State()
	stateCell := v.styles.ForState(state).Render(fmt.Sprintf("%-12s", state))
	line := stateCell + formatColumns(p.Type.Friendly, p.Name(), p.Contact.Name(), p.CreationDetails().Username)
	if selected {
		return v.styles.Selected.Render("> " + line)
	}
	return "  " + line
}

func (v *View) formatRow(state, typ, name, contact, username string) string {
	return fmt.Sprintf("%-12s", truncate(state, 11)) + formatColumns(typ, name, contact, username)
}

func formatColumns(typ, name, contact, username string) string {
	return fmt.Sprintf("%-20s%-24s%-24s%s", truncate(typ, 19), truncate(name, 23), truncate(contact, 23), username)
}

func (v *View) renderDetails(p *domain.Place) string {
	var lines []string
	lines = append(lines, v.styles.Title.Render(p.Name()))
	lines = append(lines, fmt.Sprintf("ID:      %s", p.ID))

	d := p.CreationDetails()
	if d.PlaceID != "" {
		lines = append(lines, fmt.Sprintf("Place:   %s", d.PlaceID))
	}
	if d.ContactID != "" {
		lines = append(lines, fmt.Sprintf("Contact: %s", d.ContactID))
	}
	if d.Username != "" {
		lines = append(lines, fmt.Sprintf("User:    %s", d.Username))
	}
	if r := p.Hierarchy.Replacement; r != nil {
		lines = append(lines, fmt.Sprintf("Replaces %s (%s)", r.Name, r.ID))
	}
	if msg := p.UploadError(); msg != "" {
		lines = append(lines, v.styles.Error.Render("Error: "+msg))
	}

	keys := make([]string, 0, len(p.ValidationErrors))
	for k := range p.ValidationErrors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		lines = append(lines, v.styles.Warning.Render(p.ValidationErrors[k]))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
