package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test archive
func createTestArchive(t *testing.T) (*Archive, string) {
	dir := filepath.Join(t.TempDir(), "runs")
	archive, err := NewArchive(dir)
	require.NoError(t, err, "should create archive")
	return archive, dir
}

// TestNewArchive_CreatesDirectory verifies the storage directory is created
func TestNewArchive_CreatesDirectory(t *testing.T) {
	_, dir := createTestArchive(t)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

// TestArchive_AppendAndGet verifies a run round-trips through its file
func TestArchive_AppendAndGet(t *testing.T) {
	archive, dir := createTestArchive(t)
	run := createTestRun(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	rows := ToRows(run.CrawlID, createTestDataset())

	require.NoError(t, archive.AppendRecords(context.Background(), run, rows))

	info, err := os.Stat(filepath.Join(dir, run.CrawlID.String()+".json"))
	require.NoError(t, err, "run file should exist")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := archive.Get(run.CrawlID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.CrawlID, got.Run.CrawlID)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, rows[0].Title, got.Rows[0].Title)
	assert.Nil(t, got.Rows[1].Title)
	assert.True(t, rows[0].PublishedAt.Equal(*got.Rows[0].PublishedAt))
}

// TestArchive_GetMissing verifies a missing run is not an error
func TestArchive_GetMissing(t *testing.T) {
	archive, _ := createTestArchive(t)

	got, err := archive.Get(uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestArchive_List verifies runs are listed oldest first
func TestArchive_List(t *testing.T) {
	archive, _ := createTestArchive(t)
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	newer := createTestRun(base.Add(time.Hour))
	older := createTestRun(base)

	require.NoError(t, archive.AppendRecords(context.Background(), newer, nil))
	require.NoError(t, archive.AppendRecords(context.Background(), older, nil))

	result, err := archive.List()
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Runs, 2)
	assert.Equal(t, older.CrawlID, result.Runs[0].Run.CrawlID)
	assert.Equal(t, newer.CrawlID, result.Runs[1].Run.CrawlID)
}

// TestArchive_List_CorruptFile verifies corrupt files are reported, not fatal
func TestArchive_List_CorruptFile(t *testing.T) {
	archive, dir := createTestArchive(t)
	run := createTestRun(time.Now())
	require.NoError(t, archive.AppendRecords(context.Background(), run, nil))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	result, err := archive.List()
	require.NoError(t, err)
	assert.Len(t, result.Runs, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "broken.json", result.Errors[0].Filename)
	assert.Contains(t, result.Errors[0].Error(), "broken.json")
}

// TestArchive_AppendCancelled verifies a cancelled context writes nothing
func TestArchive_AppendCancelled(t *testing.T) {
	archive, _ := createTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := createTestRun(time.Now())
	err := archive.AppendRecords(ctx, run, nil)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := archive.Get(run.CrawlID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
