// Package cli provides the cobra command tree for usermgr.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
	"github.com/custodia-labs/usermgr/internal/logger"
	"github.com/custodia-labs/usermgr/internal/metrics"
)

// version is set at build time.
var version = "dev"

// Services injected by main.
var (
	sessionService     driving.SessionService
	placeService       driving.PlaceService
	uploadManager      driving.UploadManager
	userManagerService driving.UserManagerService
	clientFactory      driven.DirectoryClientFactory
	appConfig          *domain.AppConfig
	metricsGatherer    prometheus.Gatherer
)

// Services aggregates everything the commands need.
type Services struct {
	Sessions     driving.SessionService
	Places       driving.PlaceService
	Uploads      driving.UploadManager
	UserManagers driving.UserManagerService
	Clients      driven.DirectoryClientFactory
	Config       *domain.AppConfig

	// Gatherer exposes the collected metrics when --metrics-addr is set.
	Gatherer prometheus.Gatherer

	// Close releases resources such as the place database.
	Close func() error
}

// Bootstrap builds the services for a data directory. It runs after flags
// are parsed so --data-dir can take effect.
type Bootstrap func(dataDir string) (Services, error)

var (
	bootstrap   Bootstrap
	closeFn     func() error
	dataDirFlag string
	verboseFlag bool
	metricsAddr string
	stopMetrics context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "usermgr",
	Short: "Provision places, contacts and users on a CHT instance",
	Long: `usermgr stages places with their primary contact and creates them on a
Community Health Toolkit instance together with a user account for each
contact. Uploads resume where they stopped: remote writes that already
succeeded are never repeated.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory holding config, session and staged places")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log remote requests")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services on startup.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly.
func SetServices(s Services) {
	sessionService = s.Sessions
	placeService = s.Places
	uploadManager = s.Uploads
	userManagerService = s.UserManagers
	clientFactory = s.Clients
	appConfig = s.Config
	metricsGatherer = s.Gatherer
	closeFn = s.Close
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if bootstrap != nil && sessionService == nil {
		s, err := bootstrap(dataDirFlag)
		if err != nil {
			return fmt.Errorf("initialising: %w", err)
		}
		SetServices(s)
	}

	if metricsAddr != "" && metricsGatherer != nil {
		ctx, cancel := context.WithCancel(cmd.Context())
		stopMetrics = cancel
		go func() {
			if err := metrics.Serve(ctx, metricsAddr, metricsGatherer); err != nil {
				logger.Warn("metrics server stopped: %v", err)
			}
		}()
		logger.Info("Serving metrics on %s/metrics", metricsAddr)
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if stopMetrics != nil {
		stopMetrics()
		stopMetrics = nil
	}
	if closeFn != nil {
		return closeFn()
	}
	return nil
}

// currentClient builds a directory client for the stored session.
func currentClient() (driven.DirectoryClient, error) {
	if sessionService == nil {
		return nil, errors.New("session service not configured")
	}
	if clientFactory == nil {
		return nil, errors.New("client factory not configured")
	}

	session, err := sessionService.Current()
	if errors.Is(err, domain.ErrNotLoggedIn) {
		return nil, errors.New("not logged in, run 'usermgr login' first")
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return clientFactory.NewClient(session)
}
