package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"messageboard/pkg/models"
	"messageboard/pkg/state"
	"messageboard/pkg/state/logger"
	"messageboard/pkg/state/metrics"
	"messageboard/pkg/state/telemetry"
	"messageboard/pkg/store/db/storedb"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	ErrBusy          = errors.New("backup already running")
	ErrLowDiskSpace  = errors.New("not enough free disk space for backup")
	ErrInMemoryStore = errors.New("in-memory store cannot be checkpointed")
)

const timeLayout = "20060102T150405Z"

// Options configures checkpoint runs.
type Options struct {
	// Dir receives one sub-directory per checkpoint.
	Dir string
	// Cron schedules runs; empty disables the schedule but RunNow still works.
	Cron string
	// Keep is the number of checkpoints retained after a run. Zero keeps all.
	Keep int
	// MinFreeBytes aborts a run when the backup volume has less free space.
	MinFreeBytes uint64
}

// Manager takes pebble checkpoints on demand and on a cron schedule.
type Manager struct {
	db   *storedb.DB
	opts Options

	mu      sync.Mutex
	running bool

	now       func() time.Time
	freeBytes func(string) (uint64, error)
}

func New(db *storedb.DB, opts Options) (*Manager, error) {
	if db.InMemory() {
		return nil, ErrInMemoryStore
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("backup dir required")
	}
	if opts.Keep < 0 {
		return nil, fmt.Errorf("backup keep must be >= 0, got %d", opts.Keep)
	}
	return &Manager{
		db:        db,
		opts:      opts,
		now:       time.Now,
		freeBytes: state.FreeBytes,
	}, nil
}

// RunNow takes a checkpoint immediately and prunes old ones.
func (m *Manager) RunNow(ctx context.Context) (models.BackupResult, error) {
	if err := ctx.Err(); err != nil {
		return models.BackupResult{}, err
	}
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return models.BackupResult{}, ErrBusy
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	res, err := m.run()
	if err != nil {
		metrics.Backups.WithLabelValues("error").Inc()
		logger.Error("backup_run_failed", "id", res.ID, "error", err)
		return res, err
	}
	metrics.Backups.WithLabelValues("ok").Inc()
	logger.Info("backup_run_done", "id", res.ID, "path", res.Path, "size", res.Size, "took_ms", res.TookMS, "pruned", res.Pruned)
	return res, nil
}

func (m *Manager) run() (models.BackupResult, error) {
	tr := telemetry.Track("backup")
	defer tr.Finish()

	started := m.now().UTC()
	res := models.BackupResult{
		ID:        started.Format(timeLayout) + "-" + uuid.NewString()[:8],
		StartedAt: started.UnixNano(),
	}
	res.Path = filepath.Join(m.opts.Dir, res.ID)

	if err := os.MkdirAll(m.opts.Dir, 0o700); err != nil {
		return res, fmt.Errorf("create backup dir: %w", err)
	}
	if err := m.checkFreeSpace(); err != nil {
		return res, err
	}
	tr.Mark("preflight")

	if err := m.db.Checkpoint(res.Path); err != nil {
		return res, fmt.Errorf("checkpoint: %w", err)
	}
	tr.Mark("checkpoint")

	size, err := dirSize(res.Path)
	if err != nil {
		return res, fmt.Errorf("size checkpoint: %w", err)
	}
	res.Bytes = size
	res.Size = humanize.IBytes(size)

	pruned, err := m.prune()
	if err != nil {
		logger.Warn("backup_prune_failed", "dir", m.opts.Dir, "error", err)
	}
	res.Pruned = pruned
	tr.Mark("prune")

	res.TookMS = m.now().UTC().Sub(started).Milliseconds()
	return res, nil
}

func (m *Manager) checkFreeSpace() error {
	if m.opts.MinFreeBytes == 0 {
		return nil
	}
	free, err := m.freeBytes(m.opts.Dir)
	if errors.Is(err, state.ErrFreeBytesUnsupported) {
		logger.Warn("backup_free_space_unknown", "dir", m.opts.Dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat backup volume: %w", err)
	}
	if free < m.opts.MinFreeBytes {
		return fmt.Errorf("%w: %s free, %s required", ErrLowDiskSpace,
			humanize.IBytes(free), humanize.IBytes(m.opts.MinFreeBytes))
	}
	return nil
}

// List returns checkpoint directory names, oldest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.opts.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(timeLayout, idTimestamp(e.Name())); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) prune() (int, error) {
	if m.opts.Keep == 0 {
		return 0, nil
	}
	names, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(names) <= m.opts.Keep {
		return 0, nil
	}
	var pruned int
	for _, name := range names[:len(names)-m.opts.Keep] {
		p := filepath.Join(m.opts.Dir, name)
		if err := os.RemoveAll(p); err != nil {
			return pruned, fmt.Errorf("remove %s: %w", p, err)
		}
		logger.Info("backup_pruned", "path", p)
		pruned++
	}
	return pruned, nil
}

func idTimestamp(name string) string {
	if len(name) < len(timeLayout) {
		return ""
	}
	return name[:len(timeLayout)]
}

func dirSize(root string) (uint64, error) {
	var total uint64
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += uint64(info.Size())
		}
		return nil
	})
	return total, err
}
