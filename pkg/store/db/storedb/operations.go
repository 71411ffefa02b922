package storedb

import (
	"fmt"

	"messageboard/pkg/state/logger"

	"github.com/cockroachdb/pebble"
)

func (d *DB) WriteOpt() *pebble.WriteOptions {
	if d.sync && !d.inMemory {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Batch collects writes that become visible to readers all at once.
type Batch struct {
	b *pebble.Batch
}

func (d *DB) NewBatch() *Batch {
	return &Batch{b: d.client.NewBatch()}
}

func (b *Batch) Set(key string, value []byte) error {
	return b.b.Set([]byte(key), value, nil)
}

// Commit applies the batch atomically and releases it.
func (d *DB) Commit(b *Batch) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	defer b.b.Close()
	if err := b.b.Commit(d.WriteOpt()); err != nil {
		logger.Error("batch_commit_failed", "count", b.b.Count(), "error", err)
		return err
	}
	return nil
}

// Discard releases a batch without applying it.
func (b *Batch) Discard() {
	_ = b.b.Close()
}

// Checkpoint writes a consistent on-disk copy of the database into dir.
// dir must not exist yet.
func (d *DB) Checkpoint(dir string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.inMemory {
		return fmt.Errorf("checkpoint not supported for in-memory store")
	}
	if err := d.client.Checkpoint(dir, pebble.WithFlushedWAL()); err != nil {
		logger.Error("pebble_checkpoint_failed", "dir", dir, "error", err)
		return err
	}
	return nil
}

// DiskUsage reports the bytes pebble currently occupies on disk.
func (d *DB) DiskUsage() uint64 {
	if !d.Ready() {
		return 0
	}
	return d.client.Metrics().DiskSpaceUsage()
}

// Flush persists memtables to disk.
func (d *DB) Flush() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.client.Flush()
}
