package app

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"messageboard/internal/backup"
	"messageboard/pkg/api/auth"
	"messageboard/pkg/board"
	"messageboard/pkg/config"
	"messageboard/pkg/config/banner"
	"messageboard/pkg/state"
	"messageboard/pkg/state/logger"
	"messageboard/pkg/state/telemetry"
	"messageboard/pkg/store/db/storedb"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"
)

// App groups server state and components.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	db     *storedb.DB
	board  *board.Board
	backup *backup.Manager
	gw     *auth.Gateway

	srvFast    *fasthttp.Server
	backupDone <-chan struct{}
	cancel     context.CancelFunc
	state      atomic.Value // string
}

// New opens the store and builds the board. It does not start the HTTP
// server or the backup schedule; call Run for that.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	cfg := eff.Config
	if cfg == nil {
		return nil, fmt.Errorf("effective config missing")
	}

	telemetry.Init(cfg.Telemetry.SlowThreshold.Duration())

	db, err := openStore(eff)
	if err != nil {
		return nil, err
	}

	b, err := board.New(context.Background(), db, board.Config{
		CharLimit: cfg.Board.CharLimit,
		MaxBatch:  cfg.Board.MaxBatch,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init board: %w", err)
	}

	a := &App{eff: eff, version: version, db: db, board: b}
	a.state.Store("initialized")

	if cfg.Backup.Enabled {
		if db.InMemory() {
			logger.Warn("backup_disabled", "reason", "in-memory storage")
		} else {
			m, err := backup.New(db, backup.Options{
				Dir:          state.PathsVar.Backups,
				Cron:         cfg.Backup.Cron,
				Keep:         cfg.Backup.Keep,
				MinFreeBytes: uint64(cfg.Backup.MinFreeBytes.Int64()),
			})
			if err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("init backups: %w", err)
			}
			a.backup = m
		}
	}

	a.gw = auth.NewGateway(secConfig(cfg))
	return a, nil
}

func openStore(eff config.EffectiveConfigResult) (*storedb.DB, error) {
	cfg := eff.Config
	if cfg.Storage.Mode == config.StorageMemory {
		return storedb.Open("", storedb.Options{InMemory: true})
	}
	if state.PathsVar.Store == "" {
		return nil, fmt.Errorf("state paths not initialized")
	}
	db, err := storedb.Open(state.PathsVar.Store, storedb.Options{Sync: cfg.SyncWrites()})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}
	if free, err := state.FreeBytes(state.PathsVar.Store); err == nil {
		logger.Info("store_volume", "free", humanize.IBytes(free), "used", humanize.IBytes(db.DiskUsage()))
	}
	return db, nil
}

func secConfig(cfg *config.Config) auth.SecConfig {
	sec := auth.SecConfig{
		RPS:         cfg.Server.RateLimit.RPS,
		Burst:       cfg.Server.RateLimit.Burst,
		SigningKeys: append([]string{}, cfg.Server.APIKeys.Signing...),
		AdminKeys:   map[string]struct{}{},
	}
	for _, k := range cfg.Server.APIKeys.Admin {
		sec.AdminKeys[k] = struct{}{}
	}
	return sec
}

// Run starts the backup schedule and the HTTP server, and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	banner.PrintWithEff(os.Stdout, a.eff, a.version)

	if a.backup != nil {
		a.backupDone = a.backup.Start(runCtx)
	}

	a.state.Store("running")
	errCh := a.startHTTP(runCtx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// State reports the lifecycle phase.
func (a *App) State() string {
	s, _ := a.state.Load().(string)
	return s
}
