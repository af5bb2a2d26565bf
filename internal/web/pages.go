package web

import (
	"log"
	"net/http"
	"strconv"
)

func (s *Server) handleCompanyPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid company ID", http.StatusBadRequest)
		return
	}

	company, found := s.catalog.Company(id)
	if !found {
		http.NotFound(w, r)
		return
	}

	s.render(w, "company.html", CompanyDetail{
		Company: company,
		Reviews: s.catalog.ReviewsFor(id),
		Jobs:    s.catalog.JobsAt(company.Name),
	})
}

func (s *Server) handleJobPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	job, found := s.catalog.Job(id)
	if !found {
		http.NotFound(w, r)
		return
	}

	s.render(w, "job.html", job)
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
