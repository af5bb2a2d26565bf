package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techhub-pk/techhub/internal/catalog"
	"github.com/techhub-pk/techhub/internal/filter"
	"github.com/techhub-pk/techhub/internal/ingest"
	"github.com/techhub-pk/techhub/internal/search"
	"github.com/techhub-pk/techhub/internal/storage"
)

func setup(t *testing.T) (*storage.DB, *search.Index) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "techhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	idx, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return db, idx
}

func TestLoad_ThenReloadSkipsUnchanged(t *testing.T) {
	db, idx := setup(t)
	w := ingest.NewWorker(db, idx)
	seed := catalog.Seed()

	stats, err := w.Load(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 22, stats.Total)
	assert.Equal(t, 22, stats.New)
	assert.Zero(t, stats.Errors)

	got, err := db.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 18, n)

	stats, err = w.Load(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 22, stats.Skipped)
	assert.Zero(t, stats.New+stats.Updated)

	seed.Companies[1].Rating = 4.0
	stats, err = w.Load(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 21, stats.Skipped)

	c, err := db.GetCompany(2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, c.Rating)
}

func TestLoad_WithoutIndex(t *testing.T) {
	db, _ := setup(t)
	stats, err := ingest.NewWorker(db, nil).Load(context.Background(), catalog.Seed())
	require.NoError(t, err)
	assert.Equal(t, 22, stats.New)
}

func TestLoad_RejectsInvalidCatalog(t *testing.T) {
	db, idx := setup(t)
	bad := catalog.Catalog{Companies: []catalog.Company{{ID: 1, Name: "No Services", Rating: 3}}}

	_, err := ingest.NewWorker(db, idx).Load(context.Background(), bad)
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)
}

type failingStore struct {
	mu      sync.Mutex
	written int
}

func (f *failingStore) UpsertCompany(c catalog.Company, _ string) error {
	if c.ID == 3 {
		return errors.New("disk full")
	}
	f.mu.Lock()
	f.written++
	f.mu.Unlock()
	return nil
}
func (f *failingStore) UpsertJob(catalog.Job, string) error       { return nil }
func (f *failingStore) UpsertReview(catalog.Review, string) error { return nil }
func (f *failingStore) ContentHash(string, int) (string, error)   { return "", nil }
func (f *failingStore) Reconcile(catalog.Catalog) (int, error)    { return 0, nil }

func TestLoad_CountsPerRecordErrors(t *testing.T) {
	store := &failingStore{}
	stats, err := ingest.NewWorker(store, nil).Load(context.Background(), catalog.Seed())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 21, stats.New)
	assert.Equal(t, 7, store.written)
}

func TestLoad_SmallerCatalogRemovesDroppedRecords(t *testing.T) {
	db, idx := setup(t)
	w := ingest.NewWorker(db, idx)

	_, err := w.Load(context.Background(), catalog.Seed())
	require.NoError(t, err)

	smaller := catalog.Catalog{Companies: []catalog.Company{{
		ID: 9, Name: "Karachi Code Works", City: "Karachi", Rating: 4.2,
		Services: []string{"Web Development"},
	}}}
	stats, err := w.Load(context.Background(), smaller)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 22, stats.Removed)

	got, err := db.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, smaller.Companies, got.Companies)
	assert.Empty(t, got.Jobs)
	assert.Empty(t, got.Reviews)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	results, err := idx.Search("forge", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLoad_KeepsFileOrder(t *testing.T) {
	db, idx := setup(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
companies:
  - {id: 2, name: "Second Listed First", city: "Lahore", rating: 4.1, services: ["CMS"]}
  - {id: 1, name: "First Listed Second", city: "Lahore", rating: 4.9, services: ["CMS"]}
jobs:
  - {id: 5, title: "Go Developer", company: "First Listed Second", city: "Lahore"}
  - {id: 3, title: "QA Engineer", company: "Second Listed First", city: "Lahore"}
`), 0o644))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)

	_, err = ingest.NewWorker(db, idx).Load(context.Background(), c)
	require.NoError(t, err)

	got, err := db.LoadCatalog()
	require.NoError(t, err)

	var companyIDs, jobIDs []int
	for _, company := range filter.FilterCompanies(got.Companies, filter.CompanyCriteria{}) {
		companyIDs = append(companyIDs, company.ID)
	}
	for _, job := range filter.FilterJobs(got.Jobs, filter.JobCriteria{}) {
		jobIDs = append(jobIDs, job.ID)
	}
	assert.Equal(t, []int{2, 1}, companyIDs)
	assert.Equal(t, []int{5, 3}, jobIDs)
}

// brokenIndex fails every write but otherwise behaves like the real index
type brokenIndex struct {
	*search.Index
}

func (brokenIndex) IndexCompany(catalog.Company) error { return errors.New("index unavailable") }
func (brokenIndex) IndexJob(catalog.Job) error         { return errors.New("index unavailable") }

func TestLoad_FailedIndexingIsRetried(t *testing.T) {
	db, idx := setup(t)
	seed := catalog.Seed()

	stats, err := ingest.NewWorker(db, brokenIndex{idx}).Load(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 18, stats.Errors)
	assert.Equal(t, 4, stats.New)

	stats, err = ingest.NewWorker(db, idx).Load(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 18, stats.New)
	assert.Equal(t, 4, stats.Skipped)
	assert.Zero(t, stats.Errors)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 18, n)
}

func TestLoad_RebuildsLostIndex(t *testing.T) {
	db, idx := setup(t)
	seed := catalog.Seed()

	_, err := ingest.NewWorker(db, idx).Load(context.Background(), seed)
	require.NoError(t, err)

	fresh, err := search.Open("")
	require.NoError(t, err)
	defer fresh.Close()

	stats, err := ingest.NewWorker(db, fresh).Load(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 18, stats.Updated)
	assert.Equal(t, 4, stats.Skipped)

	n, err := fresh.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 18, n)
}

func TestLoad_Cancelled(t *testing.T) {
	db, idx := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingest.NewWorker(db, idx).Load(ctx, catalog.Seed())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContentHash(t *testing.T) {
	a, err := ingest.ContentHash(catalog.Seed().Companies[0])
	require.NoError(t, err)
	b, err := ingest.ContentHash(catalog.Seed().Companies[0])
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	changed := catalog.Seed().Companies[0]
	changed.City = "Lahore"
	c, err := ingest.ContentHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
