package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/techhub-pk/techhub/internal/catalog"
	"github.com/techhub-pk/techhub/internal/filter"
	"github.com/techhub-pk/techhub/internal/search"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server serves a catalog snapshot. The snapshot is never modified after
// NewServer, so handlers read it without locking.
type Server struct {
	catalog   catalog.Catalog
	idx       *search.Index // optional; nil disables /api/search and facet counts
	templates *template.Template
}

// ListResponse is the JSON shape of a filtered listing
type ListResponse[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
	Total   int `json:"total"`
}

// CompanyDetail is a company with its reviews and open positions
type CompanyDetail struct {
	Company catalog.Company  `json:"company"`
	Reviews []catalog.Review `json:"reviews"`
	Jobs    []catalog.Job    `json:"jobs"`
}

// Facet lists the selectable values of one facet and, when the index is
// available, how many records carry each value
type Facet struct {
	Name   string              `json:"name"`
	Values []string            `json:"values"`
	Counts []search.FacetCount `json:"counts,omitempty"`
}

// FacetsResponse lists the facets of one record kind
type FacetsResponse struct {
	Kind         string    `json:"kind"`
	Facets       []Facet   `json:"facets"`
	RatingLevels []float64 `json:"rating_levels,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(c catalog.Catalog, idx *search.Index) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"rating": formatRating,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	return &Server{
		catalog:   c.Clone(),
		idx:       idx,
		templates: tmpl,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))

	// Pages and fragments
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /companies", s.handleCompaniesFragment)
	mux.HandleFunc("GET /jobs", s.handleJobsFragment)
	mux.HandleFunc("GET /companies/{id}", s.handleCompanyPage)
	mux.HandleFunc("GET /jobs/{id}", s.handleJobPage)

	// JSON API
	mux.HandleFunc("GET /api/companies", s.handleCompanies)
	mux.HandleFunc("GET /api/companies/{id}", s.handleCompany)
	mux.HandleFunc("GET /api/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/facets", s.handleFacets)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Cities":       filter.CompanyCities(s.catalog.Companies),
		"Services":     filter.CompanyServices(s.catalog.Companies),
		"RatingLevels": filter.RatingLevels,
		"JobCities":    filter.JobCities(s.catalog.Jobs),
		"JobTypes":     filter.JobTypes(s.catalog.Jobs),
		"Levels":       filter.JobLevels(s.catalog.Jobs),
		"HasSearch":    s.idx != nil,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("Error rendering template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCompanyCriteria(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	results := filter.FilterCompanies(s.catalog.Companies, criteria)
	writeJSON(w, http.StatusOK, ListResponse[catalog.Company]{
		Results: results,
		Count:   len(results),
		Total:   len(s.catalog.Companies),
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	results := filter.FilterJobs(s.catalog.Jobs, parseJobCriteria(r.URL.Query()))
	writeJSON(w, http.StatusOK, ListResponse[catalog.Job]{
		Results: results,
		Count:   len(results),
		Total:   len(s.catalog.Jobs),
	})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	company, found := s.catalog.Company(id)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "company not found"})
		return
	}

	writeJSON(w, http.StatusOK, CompanyDetail{
		Company: company,
		Reviews: nonNil(s.catalog.ReviewsFor(id)),
		Jobs:    nonNil(s.catalog.JobsAt(company.Name)),
	})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	job, found := s.catalog.Job(id)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = search.KindCompany
	}

	var resp FacetsResponse
	switch kind {
	case search.KindCompany:
		resp = FacetsResponse{
			Kind: kind,
			Facets: []Facet{
				{Name: "City", Values: filter.CompanyCities(s.catalog.Companies)},
				{Name: "Services", Values: filter.CompanyServices(s.catalog.Companies)},
			},
			RatingLevels: filter.RatingLevels,
		}
	case search.KindJob:
		resp = FacetsResponse{
			Kind: kind,
			Facets: []Facet{
				{Name: "City", Values: filter.JobCities(s.catalog.Jobs)},
				{Name: "JobType", Values: filter.JobTypes(s.catalog.Jobs)},
				{Name: "Level", Values: filter.JobLevels(s.catalog.Jobs)},
			},
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown kind %q", kind)})
		return
	}

	if s.idx != nil {
		for i := range resp.Facets {
			f := &resp.Facets[i]
			counts, err := s.idx.FacetCounts(kind, f.Name, len(f.Values))
			if err != nil {
				log.Printf("Warning: facet counts for %s.%s: %v", kind, f.Name, err)
				continue
			}
			f.Counts = counts
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.idx == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "search index not available"})
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing q parameter"})
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != search.KindCompany && kind != search.KindJob {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown kind %q", kind)})
		return
	}

	results, err := s.idx.Search(query, kind, limit)
	if err != nil {
		log.Printf("Error searching %q: %v", query, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"query":   query,
		"count":   len(results),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":           "ok",
		"companies":        len(s.catalog.Companies),
		"jobs":             len(s.catalog.Jobs),
		"search_available": s.idx != nil,
	}
	if s.idx != nil {
		if n, err := s.idx.Count(); err == nil {
			resp["documents_in_index"] = n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid id %q", raw)})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
