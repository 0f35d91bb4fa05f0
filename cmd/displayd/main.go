package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"displayd/internal/audiocontext"
	"displayd/internal/auth"
	"displayd/internal/config"
	"displayd/internal/displaydeviceapi"
	"displayd/internal/displaypersistence"
	"displayd/internal/events"
	"displayd/internal/health"
	"displayd/internal/runtime/supervisor"
	"displayd/internal/server"
	"displayd/internal/sessionstate"
	"displayd/internal/state/paths"

	"displayd/internal/displaydevice"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to displayd's YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load config: %v", err)
	}

	catalog, err := displaydeviceapi.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load device catalog: %v", err)
	}
	api := displaydeviceapi.NewFixtureApi(catalog)

	store, err := displaypersistence.Open(cfg.SettingsDB)
	if err != nil {
		log.Fatalf("FATAL: failed to open settings database: %v", err)
	}
	defer store.Close()

	manager := displaydevice.NewSettingsManager(api, audiocontext.NewStub(), store)

	authManager, err := auth.NewManager(paths.Root())
	if err != nil {
		log.Fatalf("FATAL: failed to initialize auth manager: %v", err)
	}

	bus := events.NewBus()
	defer bus.Close()
	healthTracker := health.NewTracker()

	registry := sessionstate.NewRegistry()
	reporter := sessionstate.NewReporter(registry, bus, healthTracker, manager)

	srv := server.New(server.Deps{
		Version:     version,
		Config:      cfg,
		Api:         api,
		Manager:     manager,
		Reporter:    reporter,
		AuthManager: authManager,
		Bus:         bus,
		Health:      healthTracker,
	})

	sup := supervisor.New()
	sup.Register(reporter)
	sup.Register(srv)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sup.Start(ctx); err != nil {
		log.Fatalf("FATAL: failed to start displayd: %v", err)
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("WARN: failed to notify systemd of readiness: %v", err)
	} else if sent {
		log.Printf("INFO: notified systemd that service is ready")
	}

	<-ctx.Done()
	log.Printf("INFO: displayd shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := sup.Stop(stopCtx); err != nil {
		log.Printf("WARN: displayd shutdown did not complete cleanly: %v", err)
	}
}
