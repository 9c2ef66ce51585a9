package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBPutGet(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("original")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	// Mutating the returned slice must not leak back into the store.
	got[0] = 'Y'
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestMemDBWriteBatch(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	writes := []BatchWrite{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
	}
	require.NoError(t, db.WriteBatch(writes))

	for _, w := range writes {
		got, err := db.Get(w.Key)
		require.NoError(t, err)
		require.Equal(t, w.Value, got)
	}
}

func TestLevelDBWriteBatch(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	writes := []BatchWrite{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	}
	require.NoError(t, db.WriteBatch(writes))

	for _, w := range writes {
		got, err := db.Get(w.Key)
		require.NoError(t, err)
		require.Equal(t, w.Value, got)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
