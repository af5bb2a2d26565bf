// Package ingest loads a catalog into the SQLite store and the search index.
package ingest

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/techhub-pk/techhub/internal/catalog"
	"github.com/techhub-pk/techhub/internal/search"
	"github.com/techhub-pk/techhub/internal/storage"
)

const defaultConcurrency = 5

// Store is the subset of storage.DB the worker writes to
type Store interface {
	UpsertCompany(c catalog.Company, contentHash string) error
	UpsertJob(j catalog.Job, contentHash string) error
	UpsertReview(r catalog.Review, contentHash string) error
	ContentHash(kind string, id int) (string, error)
	Reconcile(c catalog.Catalog) (int, error)
}

// Indexer is the subset of search.Index the worker writes to
type Indexer interface {
	IndexCompany(c catalog.Company) error
	IndexJob(j catalog.Job) error
	HasDocument(kind string, id int) (bool, error)
	Prune(c catalog.Catalog) (int, error)
}

// Worker handles loading catalogs
type Worker struct {
	db          Store
	index       Indexer // optional
	concurrency int
}

// NewWorker creates a new ingest worker. index may be nil to skip indexing.
func NewWorker(db Store, index Indexer) *Worker {
	return &Worker{
		db:          db,
		index:       index,
		concurrency: defaultConcurrency,
	}
}

// Stats holds load statistics
type Stats struct {
	Total    int
	New      int
	Updated  int
	Skipped  int
	Removed  int // records dropped from the store because c no longer has them
	Errors   int
	Duration time.Duration
}

// task is one record to store and index
type task struct {
	kind   string
	id     int
	label  string
	record any
	store   func(hash string) error
	index   func() error
	indexed func() (bool, error)
}

// Load validates c and makes the store and index hold exactly its records.
// Records whose content hash is unchanged and that are already indexed are
// skipped; records absent from c are removed.
func (w *Worker) Load(ctx context.Context, c catalog.Catalog) (*Stats, error) {
	startTime := time.Now()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	tasks := w.tasks(c)
	stats := &Stats{Total: len(tasks)}

	log.Printf("Loading %d companies, %d jobs, %d reviews...\n", len(c.Companies), len(c.Jobs), len(c.Reviews))

	taskChan := make(chan task, len(tasks))
	for _, t := range tasks {
		taskChan <- t
	}
	close(taskChan)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for range w.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskChan {
				if ctx.Err() != nil {
					return
				}
				if err := w.loadOne(t, stats, &mu); err != nil {
					log.Printf("Error loading %s %d (%s): %v\n", t.kind, t.id, t.label, err)
					mu.Lock()
					stats.Errors++
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()

	stats.Duration = time.Since(startTime)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load interrupted: %w", err)
	}

	removed, err := w.db.Reconcile(c)
	if err != nil {
		return stats, fmt.Errorf("reconcile store: %w", err)
	}
	stats.Removed = removed

	if w.index != nil {
		pruned, err := w.index.Prune(c)
		if err != nil {
			return stats, fmt.Errorf("prune index: %w", err)
		}
		if pruned > 0 {
			log.Printf("Removed %d stale documents from the index\n", pruned)
		}
	}

	stats.Duration = time.Since(startTime)
	log.Printf("Load complete: %d new, %d updated, %d skipped, %d removed, %d errors in %v\n",
		stats.New, stats.Updated, stats.Skipped, stats.Removed, stats.Errors, stats.Duration)

	return stats, nil
}

func (w *Worker) tasks(c catalog.Catalog) []task {
	tasks := make([]task, 0, len(c.Companies)+len(c.Jobs)+len(c.Reviews))

	for _, company := range c.Companies {
		t := task{
			kind:   storage.KindCompany,
			id:     company.ID,
			label:  company.Name,
			record: company,
			store:  func(hash string) error { return w.db.UpsertCompany(company, hash) },
		}
		if w.index != nil {
			t.index = func() error { return w.index.IndexCompany(company) }
			t.indexed = func() (bool, error) { return w.index.HasDocument(search.KindCompany, company.ID) }
		}
		tasks = append(tasks, t)
	}

	for _, job := range c.Jobs {
		t := task{
			kind:   storage.KindJob,
			id:     job.ID,
			label:  job.Title,
			record: job,
			store:  func(hash string) error { return w.db.UpsertJob(job, hash) },
		}
		if w.index != nil {
			t.index = func() error { return w.index.IndexJob(job) }
			t.indexed = func() (bool, error) { return w.index.HasDocument(search.KindJob, job.ID) }
		}
		tasks = append(tasks, t)
	}

	for _, review := range c.Reviews {
		tasks = append(tasks, task{
			kind:   storage.KindReview,
			id:     review.ID,
			label:  review.Title,
			record: review,
			store:  func(hash string) error { return w.db.UpsertReview(review, hash) },
		})
	}

	return tasks
}

// loadOne indexes and stores a single record. The content hash is written
// last, so a record whose indexing failed is retried on the next load.
func (w *Worker) loadOne(t task, stats *Stats, mu *sync.Mutex) error {
	contentHash, err := ContentHash(t.record)
	if err != nil {
		return err
	}

	existingHash, err := w.db.ContentHash(t.kind, t.id)
	if err != nil {
		return fmt.Errorf("get content hash: %w", err)
	}

	if existingHash == contentHash {
		indexed := true
		if t.indexed != nil {
			if indexed, err = t.indexed(); err != nil {
				return fmt.Errorf("check index: %w", err)
			}
		}
		if indexed {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			return nil
		}
	}

	if t.index != nil {
		if err := t.index(); err != nil {
			return fmt.Errorf("index %s: %w", t.kind, err)
		}
	}

	if err := t.store(contentHash); err != nil {
		return fmt.Errorf("upsert %s: %w", t.kind, err)
	}

	mu.Lock()
	if existingHash == "" {
		stats.New++
	} else {
		stats.Updated++
	}
	mu.Unlock()

	return nil
}

// ContentHash returns the md5 of a record's JSON encoding
func ContentHash(record any) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return fmt.Sprintf("%x", md5.Sum(data)), nil
}

var (
	_ Store   = (*storage.DB)(nil)
	_ Indexer = (*search.Index)(nil)
)
