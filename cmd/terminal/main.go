package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mod-ark/ark"
	"mod-ark/contract"
	"mod-ark/domain"
	"mod-ark/internal"
	"mod-ark/observability"
	"mod-ark/repositories"
	"mod-ark/runtime"
	"mod-ark/runtime/workers"
	"mod-ark/ui"
	"mod-ark/workshop"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

const statsInterval = 5 * time.Second

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

var consoleID = domain.NewParticipantID(domain.OriginLocal, "console")

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Terminal terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, runs the terminal lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
func run() (int, error) {
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		debugPort := 8081
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", debugPort, endpoint))
		database.StartDebugServer(db, debugPort, endpoint, modMapper)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	repo := repositories.NewStateRepository(db, logger)

	presence := runtime.NewPresenceTracker(logger)
	stats := observability.NewBusStats()
	presence.SubscribeChanges(stats.ObservePresence)

	bus := runtime.NewBus(logger, presence)
	bus.AddSinks(stats)

	workshopSvc := workshop.NewLocalService(logger, config.WorkshopLatency)
	seedWorkshop(logger, workshopSvc, repo)

	arkID := domain.NewParticipantID(domain.OriginLocal, "ModArk")
	notify := func(text string) {
		if err := bus.Send(ctx, arkID, domain.TerminalUIID, domain.ContentTypeCLI, domain.ShowCommand(text)); err != nil {
			logger.Warn("Progress line not delivered", "error", err)
		}
	}
	onRestart := func() {
		notify("Restarting now so the reconciled subscriptions take effect.")
		stop()
	}
	orchestrator := ark.NewOrchestrator(
		logger, workshopSvc, repo, config.Timing(),
		config.BackupRoot, config.StagingDir,
		notify, onRestart,
	)

	terminal := ui.NewTerminal(logger, bus, presence, repo, stats, orchestrator, os.Stdout)
	terminal.Attach()

	registerKnownMods(logger, bus, repo)
	bus.Register(consoleID, func(_ context.Context, _ domain.ParticipantID, _, body string) error {
		terminal.Post(body)
		return nil
	})

	sup := workers.NewSupervisor(logger)
	sup.Add(terminal, workers.NewStatsReporter(logger, stats, statsInterval))
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	go readConsole(ctx, logger, bus, stop)

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// readConsole feeds stdin lines to the terminal participant as cli traffic.
func readConsole(ctx context.Context, logger *slog.Logger, bus contract.IBus, stop func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			stop()
			return
		}
		if err := bus.Send(ctx, consoleID, domain.TerminalUIID, domain.ContentTypeCLI, line); err != nil {
			logger.Warn("Command not delivered", "error", err)
		}
	}
	// Stdin closed; keep running for signal-driven hosts.
	logger.Info("Console input closed")
}

// registerKnownMods brings one bus participant online per seeded mod, so
// presence, short ids, and the provider table have real content to show.
// Each participant just logs what it receives.
func registerKnownMods(logger *slog.Logger, bus contract.IBus, repo contract.IStateRepository) {
	mods, err := repo.KnownMods()
	if err != nil {
		logger.Warn("Known-mod registration skipped", "error", err)
		return
	}
	for _, mod := range mods {
		id := domain.NewParticipantID(domain.OriginLocal, mod.Name)
		if mod.ExternalID != 0 {
			id = domain.NewParticipantID(domain.OriginSteam, strconv.FormatUint(mod.ExternalID, 10))
		}
		bus.Register(id, func(_ context.Context, from domain.ParticipantID, contentType, body string) error {
			logger.Debug("Mod received message", "mod", id, "from", from, "contentType", contentType, "body", body)
			return nil
		})
	}
}

// seedWorkshop marks every known external id as already subscribed, giving
// backup a realistic live set on first run.
func seedWorkshop(logger *slog.Logger, svc *workshop.LocalService, repo contract.IStateRepository) {
	mods, err := repo.KnownMods()
	if err != nil {
		logger.Warn("Workshop seeding skipped", "error", err)
		return
	}
	for _, mod := range mods {
		if mod.ExternalID != 0 {
			svc.Seed(mod.ExternalID)
		}
	}
}

// modMapper shapes the debug inspector rows for this module's key layout.
func modMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	switch {
	case strings.HasPrefix(key, "mod:"):
		row.Type = "MOD"
		row.EntityID = strings.TrimPrefix(key, "mod:")
		row.Detail = string(val)
	case strings.HasPrefix(key, "ModOrder_"):
		row.Type = "ORDER"
		row.EntityID = strings.TrimPrefix(key, "ModOrder_")
		row.Detail = "index " + string(val)
	case strings.HasPrefix(key, "ModActive_"):
		row.Type = "FLAG"
		row.EntityID = strings.TrimPrefix(key, "ModActive_")
		row.Detail = "enabled " + string(val)
	}
	return row
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
