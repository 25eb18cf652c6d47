package sqlite

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodekasse/internal/core"
	"bodekasse/internal/log"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "bodekasse.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFreshDatabaseIsEmpty(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	members, err := s.LoadMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)

	fines, err := s.LoadFines(ctx)
	require.NoError(t, err)
	assert.Empty(t, fines)
	assert.NoError(t, s.Ping(ctx))
}

func TestSaveReplacesDatasets(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMembers(ctx, []core.Member{{Name: "Carl"}, {Name: "Anna"}}))
	require.NoError(t, s.SaveMembers(ctx, []core.Member{{Name: "Bo"}, {Name: "Anna"}}))

	members, err := s.LoadMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Bo"}, core.MemberNames(members))

	fines := []core.Fine{
		{ID: "z", Member: "Bo", FineType: "No-show", Amount: 1000, Date: core.NewDate(2024, 6, 2)},
		{ID: "a", Member: "Anna", FineType: "Afbud", Amount: 20, Date: core.NewDate(2024, 6, 1)},
	}
	require.NoError(t, s.SaveFines(ctx, fines))

	got, err := s.LoadFines(ctx)
	require.NoError(t, err)
	assert.Equal(t, fines, got, "fines keep insertion order")

	require.NoError(t, s.SaveFines(ctx, fines[1:]))
	got, err = s.LoadFines(ctx)
	require.NoError(t, err)
	assert.Equal(t, fines[1:], got)
}

func TestDuplicateMemberRollsBack(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMembers(ctx, []core.Member{{Name: "Anna"}}))
	err := s.SaveMembers(ctx, []core.Member{{Name: "Bo"}, {Name: "Bo"}})
	require.Error(t, err)

	members, err := s.LoadMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna"}, core.MemberNames(members))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bodekasse.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveMembers(ctx, []core.Member{{Name: "Anna"}}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	members, err := s.LoadMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestSavesLogAsStorageComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: &buf})

	s, err := Open(filepath.Join(t.TempDir(), "bodekasse.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SaveMembers(context.Background(), []core.Member{{Name: "Alice"}}))
	assert.Contains(t, buf.String(), "component=storage")
	assert.Contains(t, buf.String(), "table=members")
}
