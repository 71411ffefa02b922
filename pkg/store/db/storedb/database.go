package storedb

import (
	"errors"
	"fmt"
	"io"

	"messageboard/pkg/state/logger"
	"messageboard/pkg/store/keys"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Options controls how the store is opened.
type Options struct {
	// InMemory keeps all data on an in-memory filesystem; nothing survives Close.
	InMemory bool
	// Sync forces an fsync on every committed write.
	Sync bool
}

// DB is the board's handle on the underlying pebble database.
type DB struct {
	client   *pebble.DB
	path     string
	inMemory bool
	sync     bool
}

// Open opens (or creates) a pebble database at path.
func Open(path string, opts Options) (*DB, error) {
	popts := &pebble.Options{}
	if opts.InMemory {
		popts.FS = vfs.NewMem()
		if path == "" {
			path = "board"
		}
	}
	client, err := pebble.Open(path, popts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "in_memory", opts.InMemory, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path, "in_memory", opts.InMemory, "sync", opts.Sync)
	return &DB{client: client, path: path, inMemory: opts.InMemory, sync: opts.Sync}, nil
}

func (d *DB) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	if err := d.client.Close(); err != nil {
		return err
	}
	d.client = nil
	logger.Info("pebble_closed", "path", d.path)
	return nil
}

func (d *DB) Ready() bool {
	return d != nil && d.client != nil
}

func (d *DB) Path() string { return d.path }

func (d *DB) InMemory() bool { return d.inMemory }

func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (d *DB) checkOpen() error {
	if !d.Ready() {
		return fmt.Errorf("pebble not opened; call storedb.Open first")
	}
	return nil
}

// GetKey returns a copy of the value stored at key.
func (d *DB) GetKey(key string) ([]byte, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return get(d.client, key)
}

func (d *DB) SaveKey(key string, value []byte) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if err := d.client.Set([]byte(key), value, d.WriteOpt()); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("save_key_ok", "key", key, "len", len(value))
	return nil
}

// Scan calls fn for every key with the given prefix in key order.
func (d *DB) Scan(prefix string, fn func(key, value []byte) error) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return scan(d.client, prefix, fn)
}

// View is a consistent read-only view of the store.
type View struct {
	r      pebble.Reader
	closer io.Closer
}

// NewView returns a snapshot view. Callers must Close it.
func (d *DB) NewView() (*View, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	snap := d.client.NewSnapshot()
	return &View{r: snap, closer: snap}, nil
}

func (v *View) GetKey(key string) ([]byte, error) {
	return get(v.r, key)
}

func (v *View) Scan(prefix string, fn func(key, value []byte) error) error {
	return scan(v.r, prefix, fn)
}

func (v *View) Close() error {
	if v.closer == nil {
		return nil
	}
	err := v.closer.Close()
	v.closer = nil
	return err
}

func get(r pebble.Reader, key string) ([]byte, error) {
	v, closer, err := r.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			logger.Error("get_key_failed", "key", key, "error", err)
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

func scan(r pebble.Reader, prefix string, fn func(key, value []byte) error) error {
	iter, err := r.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: keys.PrefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}
