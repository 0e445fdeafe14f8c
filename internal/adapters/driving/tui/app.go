package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui/views/uploads"
	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// App runs an upload and shows its progress, following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	places []*domain.Place

	// ctx is the parent of the upload context.
	ctx    context.Context
	cancel context.CancelFunc

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	view      *uploads.View
	statusBar *status.Bar
	spinner   spinner.Model

	// running is set from Init until the upload returns.
	running bool

	// err holds the run-level upload error.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a TUI that uploads places when started.
func NewApp(ports *Ports, places []*domain.Place) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingPlaceService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	view := uploads.NewView(s, places)
	bar.SetTally(view.Tally())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Active

	return &App{
		ports:     ports,
		places:    places,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		view:      view,
		statusBar: bar,
		spinner:   sp,
	}, nil
}

// WithContext sets the parent context of the upload.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model. It starts the upload.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("usermgr - upload"),
		a.spinner.Tick,
		a.startUpload(),
	)
}

// startUpload returns a command that uploads the places and reports
// the result as messages.UploadFinished.
func (a *App) startUpload() tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	a.running = true
	a.statusBar.SetState(status.StateUploading)

	places, client := a.places, a.ports.Client
	return func() tea.Msg {
		err := a.ports.Places.UploadPlaces(ctx, client, places)
		return messages.UploadFinished{Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		if !a.running {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.RowChanged, messages.TableChanged:
		a.statusBar.SetTally(a.view.Tally())
		return a, nil

	case messages.UploadFinished:
		return a, a.finish(msg.Err)

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, a.quit()
		}
		var cmd tea.Cmd
		a.view, cmd = a.view.Update(msg)
		return a, cmd
	}

	return a, nil
}

// quit cancels a running upload. The program exits once the upload
// has returned.
func (a *App) quit() tea.Cmd {
	if !a.running {
		return tea.Quit
	}
	if a.statusBar.State() != status.StateCancelling {
		a.cancel()
		a.statusBar.SetState(status.StateCancelling)
	}
	return nil
}

func (a *App) finish(err error) tea.Cmd {
	cancelled := a.statusBar.State() == status.StateCancelling
	a.running = false
	if a.cancel != nil {
		a.cancel()
	}
	a.statusBar.SetTally(a.view.Tally())

	if err != nil && !errors.Is(err, context.Canceled) {
		a.err = err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(err.Error())
	} else {
		a.statusBar.SetState(status.StateDone)
	}

	if cancelled {
		return tea.Quit
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := ""
	if a.running {
		header = a.spinner.View() + " "
	}
	return header + a.view.View() + "\n\n" + a.statusBar.View()
}

// Run starts the TUI and blocks until the user quits.
// It returns the run-level upload error, if any.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	unsubscribe := a.ports.Uploads.Subscribe(NewObserver(p.Send))
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return err
	}
	return a.err
}

// Running reports whether the upload is still in progress.
func (a *App) Running() bool {
	return a.running
}

// Err returns the run-level upload error.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.view.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}
