package store_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/school-console/store"
)

// runStoreTests runs a common test suite against any Store implementation.
func runStoreTests(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("GetItem missing", func(t *testing.T) {
		got, err := s.GetItem("missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SetItem and GetItem", func(t *testing.T) {
		require.NoError(t, s.SetItem("branches", []byte(`[{"id":1}]`)))
		got, err := s.GetItem("branches")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, string(got))
	})

	t.Run("SetItem overwrites", func(t *testing.T) {
		require.NoError(t, s.SetItem("branches", []byte(`[]`)))
		got, err := s.GetItem("branches")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
	})

	t.Run("SetItem empty value", func(t *testing.T) {
		require.NoError(t, s.SetItem("empty", nil))
		got, err := s.GetItem("empty")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		require.NoError(t, s.SetItem("copy", []byte("abc")))
		got, err := s.GetItem("copy")
		require.NoError(t, err)
		got[0] = 'z'
		again, err := s.GetItem("copy")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("keys with separators", func(t *testing.T) {
		require.NoError(t, s.SetItem("school/teachers v2", []byte("x")))
		got, err := s.GetItem("school/teachers v2")
		require.NoError(t, err)
		assert.Equal(t, "x", string(got))
	})

	t.Run("Keys sorted", func(t *testing.T) {
		keys, err := s.Keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"branches", "copy", "empty", "school/teachers v2"}, keys)
	})

	t.Run("RemoveItem existing", func(t *testing.T) {
		existed, err := s.RemoveItem("copy")
		require.NoError(t, err)
		assert.True(t, existed)
		got, err := s.GetItem("copy")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RemoveItem missing", func(t *testing.T) {
		existed, err := s.RemoveItem("nope")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := s.GetItem("")
		assert.ErrorIs(t, err, store.ErrInvalidKey)
		assert.ErrorIs(t, s.SetItem("", []byte("x")), store.ErrInvalidKey)
		_, err = s.RemoveItem("")
		assert.ErrorIs(t, err, store.ErrInvalidKey)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, s.Clear())
		keys, err := s.Keys()
		require.NoError(t, err)
		assert.Empty(t, keys)
		require.NoError(t, s.SetItem("after", []byte("1")))
		got, err := s.GetItem("after")
		require.NoError(t, err)
		assert.Equal(t, "1", string(got))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, store.NewMemoryStore())
}

func TestJsonFileStore(t *testing.T) {
	s, err := store.NewJsonFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreTests(t, s)
}

func TestSqliteStore(t *testing.T) {
	s, err := store.NewSqliteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()
	runStoreTests(t, s)
}

func TestBoltStore(t *testing.T) {
	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "test.bolt"))
	require.NoError(t, err)
	defer s.Close()
	runStoreTests(t, s)
}

func TestQuotaStoreSuite(t *testing.T) {
	runStoreTests(t, store.NewQuotaStore(store.NewMemoryStore(), 1<<20))
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{"json", "sqlite", "bolt", "memory", ""} {
		t.Run(backend, func(t *testing.T) {
			s, err := store.New(backend, filepath.Join(dir, backend))
			require.NoError(t, err)
			require.NoError(t, s.SetItem("k", []byte("v")))
			if c, ok := s.(io.Closer); ok {
				require.NoError(t, c.Close())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := store.New("redis", dir)
		assert.Error(t, err)
	})
}

func TestJsonFileStorePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetItem("library_resources", []byte(`[{"id":1}]`)))

	_, err = os.Stat(filepath.Join(dir, "library_resources.json"))
	require.NoError(t, err)

	reopened, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.GetItem("library_resources")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
}

func TestBoltStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.bolt")
	s, err := store.NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetItem("teachers", []byte(`[]`)))
	require.NoError(t, s.Close())

	reopened, err := store.NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.GetItem("teachers")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestQuotaStore(t *testing.T) {
	q := store.NewQuotaStore(store.NewMemoryStore(), 20)

	// "a" + 9 bytes = 10
	require.NoError(t, q.SetItem("a", []byte("123456789")))
	used, err := q.Usage()
	require.NoError(t, err)
	assert.Equal(t, int64(10), used)

	// Would bring the total to 21.
	err = q.SetItem("b", []byte("1234567890"))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)
	got, err := q.GetItem("b")
	require.NoError(t, err)
	assert.Nil(t, got, "rejected write must not be stored")

	// Replacing an existing key only counts the new value.
	require.NoError(t, q.SetItem("a", []byte("1234567890123456789")))

	_, err = q.RemoveItem("a")
	require.NoError(t, err)
	require.NoError(t, q.SetItem("b", []byte("1234567890")))
}

func TestQuotaStoreUnlimited(t *testing.T) {
	q := store.NewQuotaStore(store.NewMemoryStore(), 0)
	require.NoError(t, q.SetItem("big", make([]byte, 1<<16)))
}
