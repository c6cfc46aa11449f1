package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dovenav/dove/config"
	"github.com/dovenav/dove/pkg/api"
	"github.com/dovenav/dove/pkg/backdrop"
	"github.com/dovenav/dove/pkg/hotkey"
	"github.com/dovenav/dove/pkg/prefs"
	"github.com/dovenav/dove/util"
	"github.com/dovenav/dove/util/log"

	// Shipped backdrop providers register themselves on import.
	_ "github.com/dovenav/dove/pkg/backdrop/providers/bingdaily"
	_ "github.com/dovenav/dove/pkg/backdrop/providers/picsum"
	_ "github.com/dovenav/dove/pkg/backdrop/providers/unsplash"
	_ "github.com/dovenav/dove/pkg/backdrop/providers/wallhaven"
)

// faceModelName is the optional pigo cascade looked up in the data
// directory. Absent model just disables face-aware cropping.
const faceModelName = "facefinder"

var cli struct {
	Listen  string           `help:"Address the homepage bridge listens on." default:"${listen}"`
	DataDir string           `help:"Directory holding settings, logs and the face model." type:"path"`
	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	// A .env file is the easiest way to hand provider API keys to a
	// daemon started outside a login shell.
	if err := godotenv.Load(); err == nil {
		log.Debugf("Loaded environment from .env")
	}

	kong.Parse(&cli,
		kong.Name(config.AppName),
		kong.Description("Background rotation daemon for the dove homepage."),
		kong.Vars{
			"listen":  config.DefaultListenAddr,
			"version": config.AppVersion,
		},
	)

	acquired, err := acquireLock()
	if err != nil {
		log.Fatalf("Single instance check failed: %v", err)
	}
	if !acquired {
		log.Fatalf("Another instance of %s is already running.", config.AppName)
	}
	defer releaseLock()

	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	dataDir := cli.DataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	store, err := prefs.NewStore(filepath.Join(dataDir, config.SettingsFileName))
	if err != nil {
		return err
	}
	appCfg := config.NewAppConfig(store)

	reg := prometheus.NewRegistry()
	metrics := backdrop.NewMetrics(reg)

	server := api.NewServer(cli.Listen)
	server.SetMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	front, back := server.Layers()

	engine, err := backdrop.New(backdrop.Options{
		Prefs:       store,
		Theme:       server,
		Front:       front,
		Back:        back,
		Metrics:     metrics,
		CascadePath: findFaceModel(dataDir),
	})
	if err != nil {
		return err
	}
	server.SetControl(engine)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(); err != nil {
		return err
	}

	if appCfg.GetHotkeysEnabled() {
		hotkey.StartListeners(engine)
	}
	if appCfg.GetUpdateCheckEnabled() {
		go reportUpdates(ctx)
	}
	notifySwapSignal(ctx, engine)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		return store.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Stop()
	})

	log.Printf("%s %s ready (settings: %s)", config.AppName, config.AppVersion, store.Path())
	return g.Wait()
}

// findFaceModel returns the cascade path when a model file is present,
// otherwise empty to leave face boost off quietly.
func findFaceModel(dataDir string) string {
	path := filepath.Join(dataDir, faceModelName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// reportUpdates logs the availability of a newer release. Failures are
// logged at debug level only; an offline start should not be noisy.
func reportUpdates(ctx context.Context) {
	result, err := util.CheckForUpdates(ctx, http.DefaultClient)
	if err != nil {
		log.Debugf("Update check failed: %v", err)
		return
	}
	if result.UpdateAvailable {
		log.Printf("Update available: %s (running %s). Get it at %s",
			result.LatestVersion, result.CurrentVersion, result.ReleaseURL)
	} else {
		log.Debugf("Running latest release %s", result.CurrentVersion)
	}
}
