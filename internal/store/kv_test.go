package store

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"nvt/internal/metrics"
	"nvt/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type positive struct {
	N int `json:"n"`
}

func (p positive) Validate() error {
	if p.N <= 0 {
		return errors.New("n must be positive")
	}
	return nil
}

func newKV(t *testing.T, medium storage.Store) (*KV, *metrics.Metrics) {
	t.Helper()
	m := &metrics.Metrics{}
	return New(medium, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithMetrics(m)), m
}

func TestWriteRead(t *testing.T) {
	kv, m := newKV(t, storage.NewMemoryStore(0))

	require.NoError(t, kv.Write("p", point{X: 1, Y: 2}))
	got := Read(kv, "p", point{})
	assert.Equal(t, point{X: 1, Y: 2}, got)
	assert.Equal(t, int64(1), m.WritesTotal.Load())
}

func TestReadAbsentReturnsDefault(t *testing.T) {
	kv, _ := newKV(t, storage.NewMemoryStore(0))

	got := Read(kv, "missing", []int{7})
	assert.Equal(t, []int{7}, got)

	_, outcome, err := Lookup[[]int](kv, "missing")
	assert.NoError(t, err)
	assert.Equal(t, Absent, outcome)
}

func TestReadNullIsAbsent(t *testing.T) {
	mem := storage.NewMemoryStore(0)
	require.NoError(t, mem.Put("k", []byte(" null ")))
	kv, m := newKV(t, mem)

	_, outcome, err := Lookup[point](kv, "k")
	assert.NoError(t, err)
	assert.Equal(t, Absent, outcome)
	assert.Zero(t, m.CorruptReadsTotal.Load())
}

func TestCorruptValueSwallowed(t *testing.T) {
	mem := storage.NewMemoryStore(0)
	require.NoError(t, mem.Put("p", []byte("{not json")))
	require.NoError(t, mem.Put("q", []byte(`"a string"`)))
	kv, m := newKV(t, mem)

	assert.Equal(t, point{X: 9}, Read(kv, "p", point{X: 9}))
	assert.Equal(t, point{X: 9}, Read(kv, "q", point{X: 9}))
	assert.Equal(t, int64(2), m.CorruptReadsTotal.Load())

	_, outcome, err := Lookup[point](kv, "p")
	assert.Equal(t, Corrupt, outcome)
	assert.True(t, IsKind(err, CorruptValue))
}

func TestValidatorRejectsShape(t *testing.T) {
	kv, _ := newKV(t, storage.NewMemoryStore(0))
	require.NoError(t, kv.Write("n", positive{N: -1}))

	got := Read(kv, "n", positive{N: 42})
	assert.Equal(t, 42, got.N)

	require.NoError(t, kv.Write("n", positive{N: 3}))
	assert.Equal(t, 3, Read(kv, "n", positive{N: 42}).N)
}

func TestWriteQuotaExceeded(t *testing.T) {
	kv, m := newKV(t, storage.NewMemoryStore(4))

	err := kv.Write("big", "this does not fit")
	require.Error(t, err)
	assert.True(t, IsKind(err, WriteFailed))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.Equal(t, int64(1), m.WriteFailuresTotal.Load())

	assert.Equal(t, "default", Read(kv, "big", "default"))
}

func TestUnmarshalableValue(t *testing.T) {
	kv, _ := newKV(t, storage.NewMemoryStore(0))
	err := kv.Write("ch", make(chan int))
	assert.True(t, IsKind(err, WriteFailed))
}

func TestUnavailableDegrades(t *testing.T) {
	kv, m := newKV(t, storage.Unavailable{})

	err := kv.Write("k", 1)
	assert.True(t, IsKind(err, Unavailable))
	assert.Equal(t, 5, Read(kv, "k", 5))
	assert.True(t, IsKind(kv.Remove("k"), Unavailable))
	assert.True(t, IsKind(kv.ClearAll(), Unavailable))
	assert.Equal(t, int64(4), m.UnavailableTotal.Load())
}

func TestRemoveAndClearAll(t *testing.T) {
	mem := storage.NewMemoryStore(0)
	kv, _ := newKV(t, mem)

	require.NoError(t, kv.Write("a", 1))
	require.NoError(t, kv.Write("b", 2))
	require.NoError(t, kv.Remove("a"))
	require.NoError(t, kv.Remove("a"))
	assert.Equal(t, 0, Read(kv, "a", 0))

	keys, err := kv.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	require.NoError(t, kv.ClearAll())
	assert.Empty(t, mem.Snapshot())
}

func TestStorageErrorMessage(t *testing.T) {
	err := &StorageError{Kind: WriteFailed, Key: "k", Err: storage.ErrQuotaExceeded}
	assert.Equal(t, `write_failed "k": storage quota exceeded`, err.Error())

	err = &StorageError{Kind: Unavailable, Err: storage.ErrUnavailable}
	assert.Equal(t, "unavailable: storage unavailable", err.Error())
}
