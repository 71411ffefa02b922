package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"messageboard/pkg/state"
	"messageboard/pkg/store/db/storedb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDisk(t *testing.T) *storedb.DB {
	t.Helper()
	db, err := storedb.Open(filepath.Join(t.TempDir(), "store"), storedb.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// clock returns a now func that advances one minute per call.
func clock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Minute)
		return cur
	}
}

func TestNewRejectsInMemoryStore(t *testing.T) {
	db, err := storedb.Open("", storedb.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db, Options{Dir: t.TempDir()})
	if !errors.Is(err, ErrInMemoryStore) {
		t.Fatalf("expected ErrInMemoryStore, got %v", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	db := openDisk(t)
	_, err := New(db, Options{})
	assert.Error(t, err)
	_, err = New(db, Options{Dir: t.TempDir(), Keep: -1})
	assert.Error(t, err)
}

func TestRunNowWritesReadableCheckpoint(t *testing.T) {
	db := openDisk(t)
	require.NoError(t, db.SaveKey("b:count", []byte("1")))

	dir := t.TempDir()
	m, err := New(db, Options{Dir: dir})
	require.NoError(t, err)

	res, err := m.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, res.ID), res.Path)
	assert.NotZero(t, res.Bytes)
	assert.NotEmpty(t, res.Size)

	restored, err := storedb.Open(res.Path, storedb.Options{})
	require.NoError(t, err)
	defer restored.Close()
	v, err := restored.GetKey("b:count")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))
}

func TestRunNowPrunesOldCheckpoints(t *testing.T) {
	db := openDisk(t)
	dir := t.TempDir()
	m, err := New(db, Options{Dir: dir, Keep: 2})
	require.NoError(t, err)
	m.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var ids []string
	for i := 0; i < 4; i++ {
		res, err := m.RunNow(context.Background())
		require.NoError(t, err)
		ids = append(ids, res.ID)
	}

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, ids[2:], names)

	// non checkpoint entries are left alone
	require.NoError(t, os.Mkdir(filepath.Join(dir, "notes"), 0o700))
	res, err := m.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pruned)
	_, err = os.Stat(filepath.Join(dir, "notes"))
	assert.NoError(t, err)
}

func TestRunNowChecksFreeSpace(t *testing.T) {
	db := openDisk(t)
	dir := t.TempDir()
	m, err := New(db, Options{Dir: dir, MinFreeBytes: 1 << 20})
	require.NoError(t, err)

	m.freeBytes = func(string) (uint64, error) { return 1024, nil }
	_, err = m.RunNow(context.Background())
	if !errors.Is(err, ErrLowDiskSpace) {
		t.Fatalf("expected ErrLowDiskSpace, got %v", err)
	}
	names, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	m.freeBytes = func(string) (uint64, error) { return 0, state.ErrFreeBytesUnsupported }
	_, err = m.RunNow(context.Background())
	assert.NoError(t, err)
}

func TestRunNowHonoursContext(t *testing.T) {
	db := openDisk(t)
	m, err := New(db, Options{Dir: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.RunNow(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunNowRejectsConcurrentRun(t *testing.T) {
	db := openDisk(t)
	m, err := New(db, Options{Dir: t.TempDir()})
	require.NoError(t, err)

	m.running = true
	_, err = m.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestStartStopsOnCancel(t *testing.T) {
	db := openDisk(t)

	m, err := New(db, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	select {
	case <-m.Start(context.Background()):
	case <-time.After(time.Second):
		t.Fatal("disabled schedule did not return")
	}

	m, err = New(db, Options{Dir: t.TempDir(), Cron: "0 3 * * *"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := m.Start(ctx)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("schedule loop did not stop")
	}
}
