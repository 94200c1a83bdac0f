package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test offer store
func createTestOfferStore(t *testing.T) *OfferStore {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	store, err := NewOfferStore(dbPath)
	require.NoError(t, err, "should create offer store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: build a finished run
func createTestRun(startedAt time.Time) RunInfo {
	run := NewRunInfo("https://example.test/?p={page}", 1, 3)
	run.PagesOK = 2
	run.PagesFailed = 1
	run.StartedAt = startedAt
	run.FinishedAt = startedAt.Add(time.Minute)
	return run
}

// TestNewOfferStore_InitializesSchema verifies tables exist on creation
func TestNewOfferStore_InitializesSchema(t *testing.T) {
	store := createTestOfferStore(t)

	offers, err := store.ListOffers(OfferFilter{})
	require.NoError(t, err, "offres table should exist")
	assert.Empty(t, offers)

	runs, err := store.ListRuns()
	require.NoError(t, err, "runs table should exist")
	assert.Empty(t, runs)
}

// TestOfferStore_AppendAndList verifies rows round-trip in order with nulls
func TestOfferStore_AppendAndList(t *testing.T) {
	store := createTestOfferStore(t)
	run := createTestRun(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	dataset := createTestDataset()
	run.Records = len(dataset)
	rows := ToRows(run.CrawlID, dataset)

	require.NoError(t, store.AppendRecords(context.Background(), run, rows))

	stored, err := store.ListOffers(OfferFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	for i := range rows {
		assert.Equal(t, rows[i].ID, stored[i].ID)
		assert.Equal(t, i, stored[i].Position)
		assert.Equal(t, rows[i].Title, stored[i].Title)
		assert.Equal(t, rows[i].Company, stored[i].Company)
		assert.Equal(t, rows[i].Location, stored[i].Location)
		assert.Equal(t, rows[i].SalaryText, stored[i].SalaryText)
		assert.Equal(t, rows[i].Description, stored[i].Description)
	}

	require.NotNil(t, stored[0].PublishedAt)
	assert.True(t, rows[0].PublishedAt.Equal(*stored[0].PublishedAt))
	assert.Nil(t, stored[1].Title, "ghost record should keep null fields")
	assert.Nil(t, stored[2].PublishedAt)
}

// TestOfferStore_RunRecorded verifies run metadata is stored
func TestOfferStore_RunRecorded(t *testing.T) {
	store := createTestOfferStore(t)
	run := createTestRun(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	run.Records = 0

	require.NoError(t, store.AppendRecords(context.Background(), run, nil))

	got, err := store.GetRun(run.CrawlID)
	require.NoError(t, err)
	assert.Equal(t, run.URLTemplate, got.URLTemplate)
	assert.Equal(t, 1, got.StartPage)
	assert.Equal(t, 3, got.EndPage)
	assert.Equal(t, 2, got.PagesOK)
	assert.Equal(t, 1, got.PagesFailed)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.True(t, run.FinishedAt.Equal(got.FinishedAt))
}

// TestOfferStore_GetRun_NotFound verifies missing runs are reported
func TestOfferStore_GetRun_NotFound(t *testing.T) {
	store := createTestOfferStore(t)

	_, err := store.GetRun(uuid.New())

	assert.ErrorIs(t, err, ErrRunNotFound)
}

// TestOfferStore_ListRuns verifies runs are listed most recent first
func TestOfferStore_ListRuns(t *testing.T) {
	store := createTestOfferStore(t)
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	older := createTestRun(base)
	newer := createTestRun(base.Add(time.Hour))

	require.NoError(t, store.AppendRecords(context.Background(), older, nil))
	require.NoError(t, store.AppendRecords(context.Background(), newer, nil))

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.CrawlID, runs[0].CrawlID)
	assert.Equal(t, older.CrawlID, runs[1].CrawlID)
}

// TestOfferStore_FilterAndCount verifies filtering by run and pagination
func TestOfferStore_FilterAndCount(t *testing.T) {
	store := createTestOfferStore(t)
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	first := createTestRun(base)
	second := createTestRun(base.Add(time.Hour))

	require.NoError(t, store.AppendRecords(context.Background(), first, ToRows(first.CrawlID, createTestDataset())))
	require.NoError(t, store.AppendRecords(context.Background(), second, ToRows(second.CrawlID, createTestDataset()[:1])))

	total, err := store.CountOffers(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	count, err := store.CountOffers(&second.CrawlID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := store.ListOffers(OfferFilter{CrawlID: &first.CrawlID, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, stored[0].Position)
	assert.Equal(t, 2, stored[1].Position)
}

// TestOfferStore_AppendIsAtomic verifies a failed append stores nothing
func TestOfferStore_AppendIsAtomic(t *testing.T) {
	store := createTestOfferStore(t)
	run := createTestRun(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	rows := ToRows(run.CrawlID, createTestDataset())
	rows[2].ID = rows[0].ID // duplicate primary key

	err := store.AppendRecords(context.Background(), run, rows)
	require.Error(t, err)

	count, err := store.CountOffers(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no rows should be stored")

	_, err = store.GetRun(run.CrawlID)
	assert.ErrorIs(t, err, ErrRunNotFound, "run should be rolled back too")
}

// TestOfferStore_ExistingDatabase verifies data persists across reopen
func TestOfferStore_ExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store1, err := NewOfferStore(dbPath)
	require.NoError(t, err)
	run := createTestRun(time.Now())
	require.NoError(t, store1.AppendRecords(context.Background(), run, ToRows(run.CrawlID, createTestDataset())))
	store1.Close()

	store2, err := NewOfferStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	count, err := store2.CountOffers(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// TestOfferStore_ListRuns_SortsChronologically verifies fractional seconds
// and time zones do not disturb run order
func TestOfferStore_ListRuns_SortsChronologically(t *testing.T) {
	store := createTestOfferStore(t)
	base := time.Date(2025, 3, 14, 12, 0, 5, 0, time.UTC)
	whole := createTestRun(base)
	fraction := createTestRun(base.Add(500 * time.Millisecond))
	paris := createTestRun(time.Date(2025, 3, 14, 13, 0, 0, 0, time.FixedZone("CEST", 2*60*60)))

	for _, run := range []RunInfo{whole, fraction, paris} {
		require.NoError(t, store.AppendRecords(context.Background(), run, nil))
	}

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, fraction.CrawlID, runs[0].CrawlID)
	assert.Equal(t, whole.CrawlID, runs[1].CrawlID)
	assert.Equal(t, paris.CrawlID, runs[2].CrawlID, "11:00 UTC is the oldest run")
	assert.True(t, paris.StartedAt.Equal(runs[2].StartedAt))
}

// TestOfferStore_ListOffers_StorageOrder verifies offers list in the order
// runs were stored
func TestOfferStore_ListOffers_StorageOrder(t *testing.T) {
	store := createTestOfferStore(t)
	first := createTestRun(time.Now())
	second := createTestRun(time.Now())
	firstRows := ToRows(first.CrawlID, createTestDataset())
	secondRows := ToRows(second.CrawlID, createTestDataset())

	require.NoError(t, store.AppendRecords(context.Background(), first, firstRows))
	require.NoError(t, store.AppendRecords(context.Background(), second, secondRows))

	stored, err := store.ListOffers(OfferFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for i, row := range append(firstRows, secondRows...) {
		assert.Equal(t, row.ID, stored[i].ID)
	}
}

// TestOfferStore_ListOffers_OffsetWithoutLimit verifies an offset applies
// even when no limit is set
func TestOfferStore_ListOffers_OffsetWithoutLimit(t *testing.T) {
	store := createTestOfferStore(t)
	run := createTestRun(time.Now())
	rows := ToRows(run.CrawlID, createTestDataset())
	require.NoError(t, store.AppendRecords(context.Background(), run, rows))

	stored, err := store.ListOffers(OfferFilter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rows[2].ID, stored[0].ID)
}
