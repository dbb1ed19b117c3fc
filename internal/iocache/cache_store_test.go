package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/gitreport/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteCacheStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	store, err := NewCacheStore(reportTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "report_cache", false},
		{"leading underscore", "_cache2", false},
		{"empty", "", true},
		{"leading digit", "1cache", true},
		{"injection", "cache; DROP TABLE x", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`report_cache`", quoteTableName("report_cache", schema.MySQLBackend))
	assert.Equal(t, `"report_cache"`, quoteTableName("report_cache", schema.PostgreSQLBackend))
	assert.Equal(t, `"report_cache"`, quoteTableName("report_cache", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholderList(schema.SQLiteBackend, 3))
	assert.Equal(t, "?, ?", placeholderList(schema.MySQLBackend, 2))
	assert.Equal(t, "$1, $2, $3", placeholderList(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "$4", placeholder(schema.PostgreSQLBackend, 4))
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad name", schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	assert.Error(t, err)

	_, err = NewCacheStore(reportTable, schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(reportTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("key")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("key", []byte("value"), 1, 0))
	assert.NoError(t, store.Clear())
	assert.NoError(t, store.Close())

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
}

func TestCacheStoreSQLite(t *testing.T) {
	store := newSQLiteCacheStore(t)

	t.Run("miss", func(t *testing.T) {
		_, _, _, err := store.Get("absent")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`{"total_commits":3}`), 1, 1700000000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"total_commits":3}`), value)
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1700000000), ts)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte("new"), 2, 1700000100))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), value)
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(1700000100), ts)
	})

	t.Run("status", func(t *testing.T) {
		require.NoError(t, store.Set("k2", []byte("other"), 1, 1600000000))
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(1700000100, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1600000000, 0), status.OldestEntryTime)
		assert.Positive(t, status.TableSizeBytes)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Clear())
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Zero(t, status.TotalEntries)
		_, _, _, err = store.Get("k1")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestCacheStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(reportTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("v"), 1, 1))
	require.NoError(t, store.Close())

	reopened, err := NewCacheStore(reportTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	value, _, _, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}
