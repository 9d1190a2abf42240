// Seeds known-mod metadata, load order, and enablement flags into badger so
// the terminal has realistic content on first run.
package main

import (
	"fmt"
	"os"

	"mod-ark/domain"
	"mod-ark/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

type config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
}

type seedMod struct {
	info    domain.ModInfo
	order   int
	enabled bool
}

var seedMods = []seedMod{
	{info: domain.ModInfo{Name: "alphamod", ExternalID: 111222789, DisplayName: "Alpha Mod"}, order: 0, enabled: true},
	{info: domain.ModInfo{Name: "betatools", ExternalID: 222333444, DisplayName: "Beta Tools"}, order: 1, enabled: true},
	{info: domain.ModInfo{Name: "gammapack", ExternalID: 333444555, DisplayName: "Gamma Pack"}, order: 2, enabled: false},
	{info: domain.ModInfo{Name: "deltaui", DisplayName: "Delta UI"}, order: 3, enabled: true},
	{info: domain.ModInfo{Name: "epsilonfix", DisplayName: "Epsilon Fix"}, order: 4, enabled: false},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(cfg.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	repo := repositories.NewStateRepository(db, logger)
	for _, mod := range seedMods {
		if err := repo.PutMod(mod.info); err != nil {
			return fmt.Errorf("put %s: %w", mod.info.Name, err)
		}
		if err := repo.SetOrder(mod.info.Name, mod.order); err != nil {
			return fmt.Errorf("order %s: %w", mod.info.Name, err)
		}
		if err := repo.SetFlag(mod.info.Name, mod.enabled); err != nil {
			return fmt.Errorf("flag %s: %w", mod.info.Name, err)
		}
		logger.Info("Seeded mod", "name", mod.info.Name, "externalId", mod.info.ExternalID, "order", mod.order, "enabled", mod.enabled)
	}
	logger.Info("Seeding complete", "mods", len(seedMods))
	return nil
}
