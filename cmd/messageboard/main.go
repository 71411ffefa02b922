package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"messageboard/internal/app"
	"messageboard/pkg/config"
	"messageboard/pkg/state"
	"messageboard/pkg/state/logger"
	"messageboard/pkg/state/shutdown"

	"github.com/joho/godotenv"
)

// set at build time
var version = "dev"

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	flags, err := config.ParseConfigFlags(os.Args[1:])
	if err != nil {
		shutdown.Abort("invalid flags", err)
	}

	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		shutdown.Abort("failed to load config file", err)
	}

	envCfg, envUsed, err := config.ParseConfigEnvs()
	if err != nil {
		shutdown.Abort("invalid environment configuration", err)
	}

	// merges and validates
	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envUsed)
	if err != nil {
		shutdown.Abort("failed to build effective config", err)
	}

	logger.Init(eff.Config.Logging.Level, eff.Config.Logging.Format, eff.Config.Logging.Sink)
	defer logger.Sync()

	logger.Info("effective_config_loaded", "source", eff.Source(), "addr", eff.Addr, "db_path", eff.DBPath)
	logger.Info("system_logical_cores", "logical_cores", runtime.NumCPU())

	if eff.Config.Storage.Mode == config.StorageDisk {
		if err := state.Init(eff.DBPath); err != nil {
			shutdown.Abort("failed to ensure state directories under "+eff.DBPath, err)
		}
	}

	a, err := app.New(eff, version)
	if err != nil {
		shutdown.Abort("failed to initialize app", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	runErr := a.Run(ctx)

	// bounded so teardown cannot hang forever
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if runErr != nil {
		shutdown.Abort("app run failed", runErr)
	}
}
