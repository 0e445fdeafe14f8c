// Command usermgr provisions places, contacts and user accounts on a
// Community Health Toolkit instance.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/custodia-labs/usermgr/internal/adapters/driven/cht"
	"github.com/custodia-labs/usermgr/internal/adapters/driven/config/file"
	"github.com/custodia-labs/usermgr/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/usermgr/internal/adapters/driving/cli"
	"github.com/custodia-labs/usermgr/internal/core/services"
	"github.com/custodia-labs/usermgr/internal/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// bootstrap wires the adapters and services for a data directory.
func bootstrap(dataDirOverride string) (cli.Services, error) {
	dataDir := file.DataDir(dataDirOverride)

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return cli.Services{}, err
	}
	cfg, err := configStore.Load()
	if err != nil {
		return cli.Services{}, err
	}
	if _, statErr := os.Stat(configStore.Path()); errors.Is(statErr, os.ErrNotExist) {
		if err := configStore.Save(cfg); err != nil {
			return cli.Services{}, fmt.Errorf("writing default config: %w", err)
		}
	}

	sessionStore, err := file.NewSessionStore(dataDir)
	if err != nil {
		return cli.Services{}, err
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return cli.Services{}, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.New(registry)

	chtConfig := cht.Config{
		RequestsPerSecond: cfg.Upload.RequestsPerSecond,
		OnRequest:         recorder.ObserveRequest,
	}

	cache := services.NewRemotePlaceCache()
	accounts := services.NewAccountProvisioner(recorder)
	uploads := services.NewUploadManager(cache, accounts, cfg.BatchSize(), recorder)

	return cli.Services{
		Sessions:     services.NewSessionService(cht.NewAuthenticator(chtConfig), sessionStore),
		Places:       services.NewPlaceService(cfg, store.PlaceStore(), cache, uploads),
		Uploads:      uploads,
		UserManagers: services.NewUserManagerService(cfg, cache, accounts),
		Clients:      &cht.Factory{Config: chtConfig},
		Config:       cfg,
		Gatherer:     registry,
		Close:        store.Close,
	}, nil
}
