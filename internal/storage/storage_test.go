package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	bs, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	ss, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		bs.Close()
		ss.Close()
	})
	return map[string]Store{
		"bolt":   bs,
		"sqlite": ss,
		"memory": NewMemoryStore(0),
	}
}

func TestPutGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("a", []byte(`{"x":1}`)))
			v, found, err := s.Get("a")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `{"x":1}`, string(v))

			require.NoError(t, s.Put("a", []byte(`2`)))
			v, _, _ = s.Get("a")
			assert.Equal(t, "2", string(v))
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, found, err := s.Get("nope")
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, v)
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("k", []byte("v")))
			require.NoError(t, s.Delete("k"))
			require.NoError(t, s.Delete("k"))
			_, found, err := s.Get("k")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestClearAndKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("b", []byte("1")))
			require.NoError(t, s.Put("a", []byte("2")))
			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, s.Clear())
			keys, err = s.Keys()
			require.NoError(t, err)
			assert.Empty(t, keys)

			// The namespace is still writable after a clear.
			require.NoError(t, s.Put("c", []byte("3")))
		})
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("recentlyViewed", []byte("[]")))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer s.Close()
	v, found, err := s.Get("recentlyViewed")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(v))
}

func TestMemoryQuota(t *testing.T) {
	m := NewMemoryStore(8)
	require.NoError(t, m.Put("a", []byte("12345")))
	assert.ErrorIs(t, m.Put("b", []byte("12345")), ErrQuotaExceeded)

	// Overwriting an existing key only counts the difference.
	require.NoError(t, m.Put("a", []byte("12345678")))
	require.NoError(t, m.Delete("a"))
	require.NoError(t, m.Put("b", []byte("12345")))
	assert.Equal(t, map[string]string{"b": "12345"}, m.Snapshot())
}

func TestUnavailable(t *testing.T) {
	var s Store = Unavailable{}
	_, _, err := s.Get("k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Put("k", nil), ErrUnavailable)
	assert.ErrorIs(t, s.Delete("k"), ErrUnavailable)
	assert.ErrorIs(t, s.Clear(), ErrUnavailable)
	assert.NoError(t, s.Close())
}
