package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/stagekit/stagekit/internal/archive"
	"github.com/stagekit/stagekit/internal/configuration"
	"github.com/stagekit/stagekit/internal/detect"
	"github.com/stagekit/stagekit/internal/fetch"
	"github.com/stagekit/stagekit/internal/payload"
	"github.com/stagekit/stagekit/internal/pipeline"
	"github.com/stagekit/stagekit/internal/schema"
	"github.com/stagekit/stagekit/internal/staging"
	"github.com/stagekit/stagekit/internal/structure"
	"github.com/stagekit/stagekit/internal/treeops"
	"github.com/stagekit/stagekit/internal/ui"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	uiEnabled     = flag.Bool("ui", true, "enable the UI")
	baseDir       = flag.String("root", ".", "base directory to install into")
	configFile    = flag.String("config", "", "read configuration from this file")
	preferCopy    = flag.Bool("prefer-copy", false, "copy dependency payloads instead of moving them")
	keepDownloads = flag.Bool("keep-downloads", false, "keep downloaded archives after the install")
	keepTemp      = flag.Bool("keep-temp", false, "keep temporary extraction directories after the install")
)

func setupLogging() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func startApp(ctx context.Context, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		slog.Info("Waiting for UI...")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if app.uiHandler.Ready.Load() || app.uiHandler.Failed.Load() {
				break
			}
		}
	}

	if err := app.Launch(ctx); err != nil {
		ExitCode = 1
	}
}

func startUI(wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		defer setupLogging()

		slog.SetDefault(slog.New(
			tint.NewHandler(app.uiHandler.LogWriter, &tint.Options{
				Level:      slog.LevelDebug,
				TimeFormat: time.Kitchen,
			}),
		))

		if err := app.LaunchUI(); err != nil {
			slog.Error("UI failure: falling back to terminal.", "err", err)
		}
	}
}

//nolint:funlen
func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()
	setupLogging()
	setupSignalHandlers(cancel)

	osProvider := &schema.OS{}
	unixProvider := &schema.Unix{}
	configProvider := &configuration.GodotenvProvider{}

	configHandler := configuration.NewHandler(configProvider)

	var configFiles []string
	if *configFile != "" {
		configFiles = append(configFiles, *configFile)
	}

	cfg, err := configHandler.Load(configFiles...)
	if err != nil {
		slog.Error("Failed to establish the configuration.",
			"err", err,
		)
		ExitCode = 1

		return
	}

	cfg.PreferCopy = cfg.PreferCopy || *preferCopy
	cfg.KeepDownloads = cfg.KeepDownloads || *keepDownloads
	cfg.KeepTemp = cfg.KeepTemp || *keepTemp

	structureDoc := []byte(configuration.DefaultStructureJSON)
	if cfg.StructureFile != "" {
		structureDoc, err = os.ReadFile(cfg.StructureFile)
		if err != nil {
			slog.Error("Failed to read the structure file.",
				"path", cfg.StructureFile,
				"err", err,
			)
			ExitCode = 1

			return
		}
	}

	installRoot, err := filepath.Abs(filepath.Join(*baseDir, cfg.InstallSubfolder))
	if err != nil {
		slog.Error("Failed to resolve the install directory.",
			"err", err,
		)
		ExitCode = 1

		return
	}

	treeHandler := treeops.NewHandler(osProvider, unixProvider)
	finder := detect.NewFinder(osProvider, treeHandler)
	locator := payload.NewLocator(cfg.ToolchainDir, cfg.RequiredSubdirs, osProvider, finder)
	installer := staging.NewInstaller(osProvider, treeHandler, locator)
	structureHandler := structure.NewHandler(osProvider, treeHandler)
	downloader := fetch.NewDownloader(nil)
	expander := archive.NewExpander()

	var uiHandler *ui.Handler
	var sink schema.EventSink
	if uiEnabled != nil && *uiEnabled {
		uiHandler = ui.NewHandler(ctx, cancel)
		sink = uiHandler.Sink()
	}

	runner := pipeline.NewRunner(installRoot, structureDoc, cfg, sink,
		osProvider, downloader, expander, treeHandler, finder, structureHandler, installer)

	var wg sync.WaitGroup
	app := NewApp(runner, uiHandler)

	wg.Add(1)
	go startUI(&wg, app)

	wg.Add(1)
	go startApp(ctx, &wg, app)

	wg.Wait()
}
