package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/techhub-pk/techhub/internal/catalog"
)

// Record kinds, also used as table names
const (
	KindCompany = "companies"
	KindJob     = "jobs"
	KindReview  = "reviews"
)

// DB wraps SQLite database operations
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	storage := &DB{db: db}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates tables if they don't exist. The full record is kept as
// JSON in the record column; scalar columns exist for indexing and stats.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		rating REAL NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		record TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		synced_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		city TEXT NOT NULL,
		job_type TEXT NOT NULL,
		level TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		record TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		synced_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY,
		company_id INTEGER NOT NULL,
		rating REAL NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		record TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		synced_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_company_city ON companies(city);
	CREATE INDEX IF NOT EXISTS idx_job_city ON jobs(city);
	CREATE INDEX IF NOT EXISTS idx_job_company ON jobs(company);
	CREATE INDEX IF NOT EXISTS idx_review_company ON reviews(company_id);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return err
	}

	// databases created before records kept their catalog position
	for _, kind := range []string{KindCompany, KindJob, KindReview} {
		var n int
		err := d.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = 'position'", kind).Scan(&n)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", kind, err)
		}
		if n == 0 {
			if _, err := d.db.Exec("ALTER TABLE " + kind + " ADD COLUMN position INTEGER NOT NULL DEFAULT 0"); err != nil {
				return fmt.Errorf("add position to %s: %w", kind, err)
			}
		}
	}

	return nil
}

// UpsertCompany inserts or updates a company
func (d *DB) UpsertCompany(c catalog.Company, contentHash string) error {
	record, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal company %d: %w", c.ID, err)
	}

	query := `
	INSERT INTO companies (id, name, city, rating, record, content_hash, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		city = excluded.city,
		rating = excluded.rating,
		record = excluded.record,
		content_hash = excluded.content_hash,
		synced_at = excluded.synced_at
	`

	_, err = d.db.Exec(query, c.ID, c.Name, c.City, c.Rating, string(record), contentHash, time.Now())
	return err
}

// UpsertJob inserts or updates a job
func (d *DB) UpsertJob(j catalog.Job, contentHash string) error {
	record, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job %d: %w", j.ID, err)
	}

	query := `
	INSERT INTO jobs (id, title, company, city, job_type, level, record, content_hash, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		company = excluded.company,
		city = excluded.city,
		job_type = excluded.job_type,
		level = excluded.level,
		record = excluded.record,
		content_hash = excluded.content_hash,
		synced_at = excluded.synced_at
	`

	_, err = d.db.Exec(query, j.ID, j.Title, j.Company, j.City, j.JobType, j.Level, string(record), contentHash, time.Now())
	return err
}

// UpsertReview inserts or updates a review
func (d *DB) UpsertReview(r catalog.Review, contentHash string) error {
	record, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal review %d: %w", r.ID, err)
	}

	query := `
	INSERT INTO reviews (id, company_id, rating, record, content_hash, synced_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		company_id = excluded.company_id,
		rating = excluded.rating,
		record = excluded.record,
		content_hash = excluded.content_hash,
		synced_at = excluded.synced_at
	`

	_, err = d.db.Exec(query, r.ID, r.CompanyID, r.Rating, string(record), contentHash, time.Now())
	return err
}

// GetCompany retrieves a company by ID, or nil if it does not exist
func (d *DB) GetCompany(id int) (*catalog.Company, error) {
	var c catalog.Company
	found, err := d.getRecord(KindCompany, id, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// GetJob retrieves a job by ID, or nil if it does not exist
func (d *DB) GetJob(id int) (*catalog.Job, error) {
	var j catalog.Job
	found, err := d.getRecord(KindJob, id, &j)
	if err != nil || !found {
		return nil, err
	}
	return &j, nil
}

func (d *DB) getRecord(kind string, id int, dst any) (bool, error) {
	var record string
	err := d.db.QueryRow("SELECT record FROM "+kind+" WHERE id = ?", id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(record), dst); err != nil {
		return false, fmt.Errorf("decode %s %d: %w", kind, id, err)
	}
	return true, nil
}

// ListCompanies retrieves all companies in catalog order
func (d *DB) ListCompanies() ([]catalog.Company, error) {
	var companies []catalog.Company
	err := d.eachRecord(KindCompany, func(data []byte) error {
		var c catalog.Company
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		companies = append(companies, c)
		return nil
	})
	return companies, err
}

// ListJobs retrieves all jobs in catalog order
func (d *DB) ListJobs() ([]catalog.Job, error) {
	var jobs []catalog.Job
	err := d.eachRecord(KindJob, func(data []byte) error {
		var j catalog.Job
		if err := json.Unmarshal(data, &j); err != nil {
			return err
		}
		jobs = append(jobs, j)
		return nil
	})
	return jobs, err
}

// ListReviews retrieves all reviews in catalog order
func (d *DB) ListReviews() ([]catalog.Review, error) {
	var reviews []catalog.Review
	err := d.eachRecord(KindReview, func(data []byte) error {
		var r catalog.Review
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		reviews = append(reviews, r)
		return nil
	})
	return reviews, err
}

func (d *DB) eachRecord(kind string, fn func([]byte) error) error {
	rows, err := d.db.Query("SELECT record FROM " + kind + " ORDER BY position, id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return err
		}
		if err := fn([]byte(record)); err != nil {
			return fmt.Errorf("decode %s row: %w", kind, err)
		}
	}

	return rows.Err()
}

// Reconcile makes the store hold exactly the records of c: rows whose IDs
// are absent from c are deleted and every remaining row takes its catalog
// position. It runs in one transaction and returns the number of rows deleted.
func (d *DB) Reconcile(c catalog.Catalog) (int, error) {
	ids := map[string][]int{
		KindCompany: make([]int, 0, len(c.Companies)),
		KindJob:     make([]int, 0, len(c.Jobs)),
		KindReview:  make([]int, 0, len(c.Reviews)),
	}
	for _, company := range c.Companies {
		ids[KindCompany] = append(ids[KindCompany], company.ID)
	}
	for _, job := range c.Jobs {
		ids[KindJob] = append(ids[KindJob], job.ID)
	}
	for _, review := range c.Reviews {
		ids[KindReview] = append(ids[KindReview], review.ID)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback()

	removed := 0
	for _, kind := range []string{KindCompany, KindJob, KindReview} {
		n, err := reconcileKind(tx, kind, ids[kind])
		if err != nil {
			return 0, fmt.Errorf("reconcile %s: %w", kind, err)
		}
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reconcile: %w", err)
	}
	return removed, nil
}

func reconcileKind(tx *sql.Tx, kind string, ids []int) (int, error) {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	stale, err := staleIDs(tx, kind, keep)
	if err != nil {
		return 0, err
	}

	for _, id := range stale {
		if _, err := tx.Exec("DELETE FROM "+kind+" WHERE id = ?", id); err != nil {
			return 0, err
		}
	}
	for pos, id := range ids {
		if _, err := tx.Exec("UPDATE "+kind+" SET position = ? WHERE id = ?", pos, id); err != nil {
			return 0, err
		}
	}

	return len(stale), nil
}

func staleIDs(tx *sql.Tx, kind string, keep map[int]bool) ([]int, error) {
	rows, err := tx.Query("SELECT id FROM " + kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	return stale, rows.Err()
}

// LoadCatalog reads the whole store into a catalog snapshot
func (d *DB) LoadCatalog() (catalog.Catalog, error) {
	var c catalog.Catalog
	var err error

	if c.Companies, err = d.ListCompanies(); err != nil {
		return catalog.Catalog{}, fmt.Errorf("list companies: %w", err)
	}
	if c.Jobs, err = d.ListJobs(); err != nil {
		return catalog.Catalog{}, fmt.Errorf("list jobs: %w", err)
	}
	if c.Reviews, err = d.ListReviews(); err != nil {
		return catalog.Catalog{}, fmt.Errorf("list reviews: %w", err)
	}

	return c, nil
}

// Count returns the number of rows stored for a kind
func (d *DB) Count(kind string) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM " + kind).Scan(&count)
	return count, err
}

// ContentHash retrieves just the content hash for a record, "" if absent
func (d *DB) ContentHash(kind string, id int) (string, error) {
	if err := checkKind(kind); err != nil {
		return "", err
	}
	var hash string
	err := d.db.QueryRow("SELECT content_hash FROM "+kind+" WHERE id = ?", id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

func checkKind(kind string) error {
	switch kind {
	case KindCompany, KindJob, KindReview:
		return nil
	}
	return fmt.Errorf("unknown record kind %q", kind)
}
