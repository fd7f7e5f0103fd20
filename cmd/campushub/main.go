package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/advisor"
	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/courses"
	"github.com/veracampus/campushub/internal/dashboard"
	"github.com/veracampus/campushub/internal/enrollment"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/fees"
	"github.com/veracampus/campushub/internal/gradebook"
	"github.com/veracampus/campushub/internal/library"
	"github.com/veracampus/campushub/internal/people"
	"github.com/veracampus/campushub/internal/registry"
	"github.com/veracampus/campushub/internal/requests"
	"github.com/veracampus/campushub/internal/server"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/internal/store"
	"github.com/veracampus/campushub/internal/timetable"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/module"
)

// screenModules lists the modules that run a list controller; they all
// share the screens.debounce default unless overridden per module.
var screenModules = []string{
	"courses", "people", "enrollment", "timetable",
	"gradebook", "fees", "library", "requests",
}

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("CampusHub portal starting")

	v, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	for _, name := range screenModules {
		v.SetDefault("modules."+name+".debounce", v.GetString("screens.debounce"))
	}
	cfg := config.New(v)

	db, err := store.New(cfg.GetString("store.path"))
	if err != nil {
		logger.Fatal("failed to open local store", zap.Error(err))
	}
	defer db.Close()

	bus := event.NewBus(logger.Named("bus"))

	manager := session.NewManager(db.DB(), logger.Named("session"))
	prefs := session.NewPrefs(db.DB())

	client := backend.New(
		cfg.GetString("backend.base_url"),
		logger.Named("backend"),
		backend.WithTimeout(cfg.GetDuration("backend.timeout")),
		backend.WithRateLimit(cfg.GetInt("backend.rate_limit"), cfg.GetInt("backend.rate_burst")),
		backend.WithTokenSource(manager),
		backend.WithAuthExpiredHandler(manager.HandleAuthExpired),
	)

	reg := registry.New(logger)
	modules := []module.Module{
		session.New(manager, prefs, client, db),
		courses.New(client, manager, prefs, bus),
		people.New(client, manager, prefs, bus),
		enrollment.New(client, manager, prefs, bus),
		timetable.New(client, manager, prefs, bus),
		gradebook.New(client, manager, prefs, bus),
		fees.New(client, manager, prefs, bus),
		library.New(client, manager, prefs, bus),
		requests.New(client, manager, prefs, bus),
		dashboard.New(client, manager),
		advisor.New(db, manager),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}

	if err := reg.InitAll(cfg); err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}

	addr := cfg.GetString("server.host") + ":" + cfg.GetString("server.port")
	srv := server.New(addr, reg, bus, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("CampusHub portal ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.StopAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("CampusHub portal stopped")
}
