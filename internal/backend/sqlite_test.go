package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestSQLite opens a new file-backed SQLite registry for testing.
func createTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	n1, err := s1.Node(ctx, "ns")
	require.NoError(t, err)
	require.NoError(t, n1.Put(ctx, "aes_iv", "1697222889472"))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	n2, err := s2.Node(ctx, "ns")
	require.NoError(t, err)

	v, ok, err := n2.Get(ctx, "aes_iv")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1697222889472", v)
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='prefs'").Scan(&name)
	require.NoError(t, err)

	var index string
	err = s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_prefs_namespace'").Scan(&index)
	require.NoError(t, err)
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpenSQLite_InMemory(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Node(ctx, "ns")
	require.NoError(t, err)
	require.NoError(t, n.Put(ctx, "k", "v"))

	v, ok, err := n.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteClose_NilDB(t *testing.T) {
	s := &SQLite{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
	_, err := s.Node(context.Background(), "ns")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSQLite_ClosedKeysUnavailable(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)
	n, err := s.Node(ctx, "ns")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = n.Keys(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, n.Clear(ctx), ErrUnavailable)
}

// Pragma tests

func TestSQLitePragma_JournalMode(t *testing.T) {
	s := createTestSQLite(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestSQLitePragma_Synchronous(t *testing.T) {
	s := createTestSQLite(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestSQLitePragma_BusyTimeout(t *testing.T) {
	s := createTestSQLite(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSQLitePragma_UserVersion(t *testing.T) {
	s := createTestSQLite(t)
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}
