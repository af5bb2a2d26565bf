package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/techhub-pk/techhub/internal/catalog"
)

// Document kinds
const (
	KindCompany = "company"
	KindJob     = "job"
)

// Index wraps a Bleve search index over companies and jobs
type Index struct {
	index bleve.Index
}

// CompanyDocument is the indexed form of a company
type CompanyDocument struct {
	Kind        string
	Name        string
	City        string
	Rating      float64
	Services    []string
	Description string
}

// Type implements mapping.Classifier
func (CompanyDocument) Type() string { return KindCompany }

// JobDocument is the indexed form of a job
type JobDocument struct {
	Kind        string
	Title       string
	Company     string
	City        string
	JobType     string
	Level       string
	Skills      []string
	Description string
}

// Type implements mapping.Classifier
func (JobDocument) Type() string { return KindJob }

// SearchResult represents a search hit
type SearchResult struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	RecordID  int                 `json:"record_id"`
	Title     string              `json:"title"`
	Subtitle  string              `json:"subtitle,omitempty"`
	City      string              `json:"city,omitempty"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"` // Highlighted snippets
}

// FacetCount is one facet term and the number of documents carrying it
type FacetCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Open opens or creates a Bleve index. An empty path creates an in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx}, nil
}

// buildIndexMapping indexes facet fields twice: once with the keyword
// analyzer under their own name so facets count exact values, and once as
// analyzed text under Name+"Text" so keyword search finds them
func buildIndexMapping() mapping.IndexMapping {
	companyMapping := bleve.NewDocumentMapping()
	addKeyword(companyMapping, "Kind", false)
	addText(companyMapping, "Name")
	addKeyword(companyMapping, "City", true)
	companyMapping.AddFieldMappingsAt("Rating", bleve.NewNumericFieldMapping())
	addKeyword(companyMapping, "Services", true)
	addText(companyMapping, "Description")

	jobMapping := bleve.NewDocumentMapping()
	addKeyword(jobMapping, "Kind", false)
	addText(jobMapping, "Title")
	addText(jobMapping, "Company")
	addKeyword(jobMapping, "City", true)
	addKeyword(jobMapping, "JobType", true)
	addKeyword(jobMapping, "Level", true)
	addKeyword(jobMapping, "Skills", true)
	addText(jobMapping, "Description")

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping(KindCompany, companyMapping)
	indexMapping.AddDocumentMapping(KindJob, jobMapping)

	return indexMapping
}

func addText(dm *mapping.DocumentMapping, field string) {
	dm.AddFieldMappingsAt(field, bleve.NewTextFieldMapping())
}

func addKeyword(dm *mapping.DocumentMapping, field string, searchable bool) {
	keyword := bleve.NewKeywordFieldMapping()
	keyword.IncludeInAll = false
	if !searchable {
		dm.AddFieldMappingsAt(field, keyword)
		return
	}

	text := bleve.NewTextFieldMapping()
	text.Name = field + "Text"
	dm.AddFieldMappingsAt(field, keyword, text)
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

// DocID returns the index document ID of a record
func DocID(kind string, id int) string {
	return kind + "-" + strconv.Itoa(id)
}

// IndexCompany adds or updates a company in the index
func (i *Index) IndexCompany(c catalog.Company) error {
	return i.index.Index(DocID(KindCompany, c.ID), companyDocument(c))
}

// IndexJob adds or updates a job in the index
func (i *Index) IndexJob(j catalog.Job) error {
	return i.index.Index(DocID(KindJob, j.ID), jobDocument(j))
}

// Delete removes a document from the index
func (i *Index) Delete(id string) error {
	return i.index.Delete(id)
}

func companyDocument(c catalog.Company) CompanyDocument {
	return CompanyDocument{
		Kind:        KindCompany,
		Name:        c.Name,
		City:        c.City,
		Rating:      c.Rating,
		Services:    c.Services,
		Description: c.Description,
	}
}

func jobDocument(j catalog.Job) JobDocument {
	return JobDocument{
		Kind:        KindJob,
		Title:       j.Title,
		Company:     j.Company,
		City:        j.City,
		JobType:     j.JobType,
		Level:       j.Level,
		Skills:      j.Skills,
		Description: j.Description,
	}
}

// kindQuery restricts a query to one document kind; kind "" means all kinds
func kindQuery(kind string, q query.Query) query.Query {
	if kind == "" {
		return q
	}
	kq := bleve.NewTermQuery(kind)
	kq.SetField("Kind")
	return bleve.NewConjunctionQuery(kq, q)
}

// Search performs a ranked keyword search over names, descriptions, services
// and skills
func (i *Index) Search(queryStr, kind string, limit int) ([]*SearchResult, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	// Match queries take the text as-is, so input such as "UI/UX" is not
	// interpreted as query-string syntax
	match := bleve.NewMatchQuery(queryStr)

	search := bleve.NewSearchRequestOptions(kindQuery(kind, match), limit, 0, false)
	search.Highlight = bleve.NewHighlightWithStyle("html")
	search.Fields = []string{"Kind", "Name", "Title", "Company", "City"}

	results, err := i.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	searchResults := make([]*SearchResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		result := &SearchResult{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}

		result.Kind, _ = hit.Fields["Kind"].(string)
		result.City, _ = hit.Fields["City"].(string)
		if id, err := strconv.Atoi(strings.TrimPrefix(hit.ID, result.Kind+"-")); err == nil {
			result.RecordID = id
		}

		switch result.Kind {
		case KindCompany:
			result.Title, _ = hit.Fields["Name"].(string)
		case KindJob:
			result.Title, _ = hit.Fields["Title"].(string)
			result.Subtitle, _ = hit.Fields["Company"].(string)
		}

		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// FacetCounts returns the most common values of a keyword field for one
// kind, highest count first
func (i *Index) FacetCounts(kind, field string, size int) ([]FacetCount, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	search := bleve.NewSearchRequest(kindQuery(kind, bleve.NewMatchAllQuery()))
	search.Size = 0
	search.AddFacet(field, bleve.NewFacetRequest(field, size))

	results, err := i.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("facet %s: %w", field, err)
	}

	facet, ok := results.Facets[field]
	if !ok || facet.Terms == nil {
		return nil, nil
	}

	var counts []FacetCount
	for _, term := range facet.Terms.Terms() {
		counts = append(counts, FacetCount{Term: term.Term, Count: term.Count})
	}
	return counts, nil
}

// Rebuild replaces the index contents with the given catalog
func (i *Index) Rebuild(c catalog.Catalog, progressFn func(current, total int)) error {
	batch := i.index.NewBatch()
	total := len(c.Companies) + len(c.Jobs)
	current := 0
	report := func() {
		current++
		if progressFn != nil {
			progressFn(current, total)
		}
	}

	for _, company := range c.Companies {
		id := DocID(KindCompany, company.ID)
		if err := batch.Index(id, companyDocument(company)); err != nil {
			return fmt.Errorf("batch index %s: %w", id, err)
		}
		report()
	}
	for _, job := range c.Jobs {
		id := DocID(KindJob, job.ID)
		if err := batch.Index(id, jobDocument(job)); err != nil {
			return fmt.Errorf("batch index %s: %w", id, err)
		}
		report()
	}

	if _, err := i.deleteStale(batch, catalogIDs(c)); err != nil {
		return err
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// Prune deletes every document whose record is not in c and returns how
// many were removed
func (i *Index) Prune(c catalog.Catalog) (int, error) {
	batch := i.index.NewBatch()
	n, err := i.deleteStale(batch, catalogIDs(c))
	if err != nil || n == 0 {
		return 0, err
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return n, nil
}

// HasDocument reports whether a record of the given kind is indexed
func (i *Index) HasDocument(kind string, id int) (bool, error) {
	doc, err := i.index.Document(DocID(kind, id))
	if err != nil {
		return false, fmt.Errorf("get document: %w", err)
	}
	return doc != nil, nil
}

func catalogIDs(c catalog.Catalog) map[string]bool {
	keep := make(map[string]bool, len(c.Companies)+len(c.Jobs))
	for _, company := range c.Companies {
		keep[DocID(KindCompany, company.ID)] = true
	}
	for _, job := range c.Jobs {
		keep[DocID(KindJob, job.ID)] = true
	}
	return keep
}

// deleteStale adds a delete to batch for every indexed document not in keep
func (i *Index) deleteStale(batch *bleve.Batch, keep map[string]bool) (int, error) {
	ids, err := i.allIDs()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if !keep[id] {
			batch.Delete(id)
			n++
		}
	}
	return n, nil
}

func (i *Index) allIDs() ([]string, error) {
	count, err := i.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	search := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	results, err := i.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the number of documents in the index
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

func checkKind(kind string) error {
	switch kind {
	case "", KindCompany, KindJob:
		return nil
	}
	return fmt.Errorf("unknown document kind %q", kind)
}
