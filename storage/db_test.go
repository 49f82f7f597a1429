package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Database {
	t.Helper()
	dir := t.TempDir()

	ldb, err := NewLevelDB(filepath.Join(dir, "leveldb"))
	require.NoError(t, err)
	bdb, err := NewBoltDB(filepath.Join(dir, "custody.bolt"))
	require.NoError(t, err)

	backends := map[string]Database{
		"memory":  NewMemDB(),
		"leveldb": ldb,
		"bolt":    bdb,
	}
	t.Cleanup(func() {
		for _, db := range backends {
			_ = db.Close()
		}
	})
	return backends
}

func TestDatabaseBackends(t *testing.T) {
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("balance/acct")

			_, err := db.Get(key)
			require.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, db.Put(key, []byte("v1")))
			value, err := db.Get(key)
			require.NoError(t, err)
			require.Equal(t, []byte("v1"), value)

			require.NoError(t, db.Put(key, []byte("v2")))
			value, err = db.Get(key)
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), value)

			require.NoError(t, db.Delete(key))
			_, err = db.Get(key)
			require.ErrorIs(t, err, ErrKeyNotFound)

			// Deleting an absent key is not an error.
			require.NoError(t, db.Delete([]byte("never-written")))
		})
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	key := []byte("k")
	value := []byte("original")
	require.NoError(t, db.Put(key, value))

	value[0] = 'X'
	got, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}
