package storage_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techhub-pk/techhub/internal/catalog"
	"github.com/techhub-pk/techhub/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "techhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRoundTrip_PreservesCatalog(t *testing.T) {
	db := openTestDB(t)
	seed := catalog.Seed()

	// insert in reverse so ordering must come from the store
	for i := len(seed.Companies) - 1; i >= 0; i-- {
		require.NoError(t, db.UpsertCompany(seed.Companies[i], "h"))
	}
	for i := len(seed.Jobs) - 1; i >= 0; i-- {
		require.NoError(t, db.UpsertJob(seed.Jobs[i], "h"))
	}
	for _, r := range seed.Reviews {
		require.NoError(t, db.UpsertReview(r, "h"))
	}

	got, err := db.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, seed, got)
}

func TestGet(t *testing.T) {
	db := openTestDB(t)
	seed := catalog.Seed()
	require.NoError(t, db.UpsertCompany(seed.Companies[2], "h"))
	require.NoError(t, db.UpsertJob(seed.Jobs[4], "h"))

	c, err := db.GetCompany(3)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, seed.Companies[2], *c)

	j, err := db.GetJob(5)
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, "Machine Learning Engineer", j.Title)

	missing, err := db.GetCompany(42)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	missingJob, err := db.GetJob(42)
	assert.NoError(t, err)
	assert.Nil(t, missingJob)
}

func TestUpsert_UpdatesInPlace(t *testing.T) {
	db := openTestDB(t)
	c := catalog.Seed().Companies[0]
	require.NoError(t, db.UpsertCompany(c, "first"))

	c.Rating = 4.1
	require.NoError(t, db.UpsertCompany(c, "second"))

	n, err := db.Count(storage.KindCompany)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := db.GetCompany(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.1, got.Rating)

	hash, err := db.ContentHash(storage.KindCompany, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", hash)
}

func TestContentHash_Missing(t *testing.T) {
	db := openTestDB(t)
	hash, err := db.ContentHash(storage.KindJob, 1)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestUnknownKind(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Count("users")
	assert.Error(t, err)
	_, err = db.ContentHash("users; DROP TABLE jobs", 1)
	assert.Error(t, err)
}

func TestLoadCatalog_Empty(t *testing.T) {
	db := openTestDB(t)
	got, err := db.LoadCatalog()
	require.NoError(t, err)
	assert.Empty(t, got.Companies)
	assert.Empty(t, got.Jobs)
}

// ── Reconcile ──────────────────────────────────────────────────────────────

func TestReconcile_RemovesAbsentRecords(t *testing.T) {
	db := openTestDB(t)
	seed := catalog.Seed()
	for _, c := range seed.Companies {
		require.NoError(t, db.UpsertCompany(c, "h"))
	}
	for _, j := range seed.Jobs {
		require.NoError(t, db.UpsertJob(j, "h"))
	}
	for _, r := range seed.Reviews {
		require.NoError(t, db.UpsertReview(r, "h"))
	}

	smaller := catalog.Catalog{Companies: []catalog.Company{seed.Companies[4]}}
	removed, err := db.Reconcile(smaller)
	require.NoError(t, err)
	assert.Equal(t, 21, removed)

	got, err := db.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, smaller.Companies, got.Companies)
	assert.Empty(t, got.Jobs)
	assert.Empty(t, got.Reviews)
}

func TestReconcile_KeepsCatalogOrder(t *testing.T) {
	db := openTestDB(t)
	seed := catalog.Seed()
	companies := []catalog.Company{seed.Companies[1], seed.Companies[0], seed.Companies[6]}
	jobs := []catalog.Job{seed.Jobs[9], seed.Jobs[2]}

	for _, c := range companies {
		require.NoError(t, db.UpsertCompany(c, "h"))
	}
	for _, j := range jobs {
		require.NoError(t, db.UpsertJob(j, "h"))
	}

	removed, err := db.Reconcile(catalog.Catalog{Companies: companies, Jobs: jobs})
	require.NoError(t, err)
	assert.Zero(t, removed)

	got, err := db.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, companies, got.Companies)
	assert.Equal(t, jobs, got.Jobs)

	// a later reorder of unchanged records moves them without rewriting
	reordered := []catalog.Company{companies[2], companies[1], companies[0]}
	_, err = db.Reconcile(catalog.Catalog{Companies: reordered, Jobs: jobs})
	require.NoError(t, err)

	got, err = db.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, reordered, got.Companies)
}

func TestOpen_AddsPositionToOlderDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "techhub.db")
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE companies (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		rating REAL NOT NULL,
		record TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		synced_at TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := storage.Open(path)
	require.NoError(t, err)
	defer db.Close()

	c := catalog.Seed().Companies[0]
	require.NoError(t, db.UpsertCompany(c, "h"))
	_, err = db.Reconcile(catalog.Catalog{Companies: []catalog.Company{c}})
	require.NoError(t, err)

	got, err := db.ListCompanies()
	require.NoError(t, err)
	assert.Equal(t, []catalog.Company{c}, got)
}
