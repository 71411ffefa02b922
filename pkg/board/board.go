package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"messageboard/pkg/state/logger"
	"messageboard/pkg/store/db/storedb"
	"messageboard/pkg/store/keys"
	"messageboard/pkg/store/locks"
)

const (
	DefaultCharLimit = 280
	MaxCharLimit     = 1024
	DefaultMaxBatch  = 1000
)

var ErrInvalidCharLimit = fmt.Errorf("char limit must be between 1 and %d", MaxCharLimit)

// Config holds the constructor-time parameters of a board.
type Config struct {
	// CharLimit is the maximum message length in characters. Zero means DefaultCharLimit.
	CharLimit int
	// MaxBatch caps the number of records a batch read returns. Zero means DefaultMaxBatch.
	MaxBatch int
}

// Board is the message store: a broadcast feed, private pair threads and the
// friend index derived from them.
type Board struct {
	db        *storedb.DB
	locks     *locks.Pool
	charLimit int
	maxBatch  int
	now       func() time.Time
}

// New opens a board on db. The char limit is persisted on first open; a store
// that already carries one keeps it regardless of cfg.
func New(ctx context.Context, db *storedb.DB, cfg Config) (*Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.CharLimit == 0 {
		cfg.CharLimit = DefaultCharLimit
	}
	if cfg.CharLimit < 1 || cfg.CharLimit > MaxCharLimit {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCharLimit, cfg.CharLimit)
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}

	b := &Board{
		db:       db,
		locks:    locks.NewPool(),
		maxBatch: cfg.MaxBatch,
		now:      time.Now,
	}
	limit, err := b.initCharLimit(cfg.CharLimit)
	if err != nil {
		return nil, err
	}
	b.charLimit = limit
	logger.Info("board_ready", "char_limit", b.charLimit, "max_batch", b.maxBatch)
	return b, nil
}

func (b *Board) initCharLimit(configured int) (int, error) {
	unlock := b.locks.Lock(keys.CharLimitKey)
	defer unlock()

	raw, err := b.db.GetKey(keys.CharLimitKey)
	switch {
	case err == nil:
		stored, perr := strconv.Atoi(string(raw))
		if perr != nil || stored < 1 || stored > MaxCharLimit {
			return 0, fmt.Errorf("stored char limit %q is invalid", raw)
		}
		if stored != configured {
			logger.Warn("char_limit_mismatch", "stored", stored, "configured", configured, "msg", "keeping stored limit")
		}
		return stored, nil
	case storedb.IsNotFound(err):
		batch := b.db.NewBatch()
		if err := batch.Set(keys.CharLimitKey, []byte(strconv.Itoa(configured))); err != nil {
			batch.Discard()
			return 0, err
		}
		if err := batch.Set(keys.SystemVersionKey, []byte(keys.SystemVersion)); err != nil {
			batch.Discard()
			return 0, err
		}
		if err := b.db.Commit(batch); err != nil {
			return 0, fmt.Errorf("persist char limit: %w", err)
		}
		return configured, nil
	default:
		return 0, fmt.Errorf("read char limit: %w", err)
	}
}

// CharLimit returns the active message length ceiling.
func (b *Board) CharLimit() int {
	return b.charLimit
}

// MaxBatch returns the batch read capacity.
func (b *Board) MaxBatch() int {
	return b.maxBatch
}

// reader is satisfied by both the live store and a snapshot view.
type reader interface {
	GetKey(key string) ([]byte, error)
	Scan(prefix string, fn func(key, value []byte) error) error
}

func readCount(r reader, key string) (uint64, error) {
	raw, err := r.GetKey(key)
	if err != nil {
		if storedb.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	return keys.ParseCount(raw)
}

var errCorruptRecord = errors.New("corrupt record")
