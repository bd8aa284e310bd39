package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.Repository()
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SetGet(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("profile:Default", []byte(`{"name":"Default"}`), 100))

	got, err := s.Get("profile:Default")
	require.NoError(t, err)
	require.Equal(t, `{"name":"Default"}`, string(got))
}

func TestStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("k", []byte("v1"), 1))
	require.NoError(t, s.Set("k", []byte("v2"), 2))

	got, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("k", []byte("v"), 1))
	require.NoError(t, s.Delete("k"))

	_, err := s.Get("k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete("never-existed"))
}

func TestStore_ListKeysByPrefix(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("profile:Default", []byte("a"), 1))
	require.NoError(t, s.Set("profile:Work", []byte("b"), 1))
	require.NoError(t, s.Set("globalSettings", []byte("c"), 1))

	keys, err := s.ListKeys("profile:")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"profile:Default", "profile:Work"}, keys)
}

func TestStore_ListKeysEscapesLikeWildcards(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("a%b", []byte("1"), 1))
	require.NoError(t, s.Set("a_b", []byte("2"), 1))
	require.NoError(t, s.Set("axb", []byte("3"), 1))

	keys, err := s.ListKeys("a%")
	require.NoError(t, err)
	require.Equal(t, []string{"a%b"}, keys)
}

func TestStore_QuotaExceeded(t *testing.T) {
	s := newTestStore(t)
	s.MaxBytes = 10

	require.NoError(t, s.Set("k1", []byte("12345"), 1))
	err := s.Set("k2", []byte("123456"), 1)
	require.ErrorIs(t, err, ErrStorageQuota)
}

func TestStore_QuotaAllowsOverwriteOfSameKey(t *testing.T) {
	s := newTestStore(t)
	s.MaxBytes = 10

	require.NoError(t, s.Set("k1", []byte("1234567890"), 1))
	require.NoError(t, s.Set("k1", []byte("0987654321"), 2))
}
