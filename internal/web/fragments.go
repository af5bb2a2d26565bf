package web

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/techhub-pk/techhub/internal/filter"
)

func (s *Server) handleCompaniesFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	criteria, err := parseCompanyCriteria(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `<div class="error">
			<strong>Error:</strong> %s
		</div>`, template.HTMLEscapeString(err.Error()))
		return
	}

	results := filter.FilterCompanies(s.catalog.Companies, criteria)

	fmt.Fprintf(w, `<div class="results-header">
		<p>Showing <strong>%d</strong> of %d companies</p>
	</div>`, len(results), len(s.catalog.Companies))

	if len(results) == 0 {
		renderEmptyState(w, "No companies found", !criteria.IsZero())
		return
	}

	for _, c := range results {
		fmt.Fprintf(w, `<div class="result-card">
			<div class="result-content">
				<h3><a href="/companies/%d">%s</a></h3>
				<p class="result-meta">%s · %s ★ (%d reviews)</p>
				<p class="result-preview">%s</p>
				<div class="tags">%s</div>
			</div>
		</div>`,
			c.ID,
			template.HTMLEscapeString(c.Name),
			template.HTMLEscapeString(c.City),
			formatRating(c.Rating),
			c.ReviewCount,
			template.HTMLEscapeString(c.Description),
			renderTags(c.Services))
	}
}

func (s *Server) handleJobsFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	criteria := parseJobCriteria(r.URL.Query())
	results := filter.FilterJobs(s.catalog.Jobs, criteria)

	fmt.Fprintf(w, `<div class="results-header">
		<p>Showing <strong>%d</strong> of %d jobs</p>
	</div>`, len(results), len(s.catalog.Jobs))

	if len(results) == 0 {
		renderEmptyState(w, "No jobs found", !criteria.IsZero())
		return
	}

	for _, j := range results {
		fmt.Fprintf(w, `<div class="result-card">
			<div class="result-content">
				<h3><a href="/jobs/%d">%s</a></h3>
				<p class="result-meta">%s · %s · %s · %s</p>
				<p class="result-preview">%s</p>
				<div class="tags">%s</div>
				<div class="result-footer">
					<span class="salary">%s</span>
					<span class="posted">%s</span>
				</div>
			</div>
		</div>`,
			j.ID,
			template.HTMLEscapeString(j.Title),
			template.HTMLEscapeString(j.Company),
			template.HTMLEscapeString(j.City),
			template.HTMLEscapeString(j.JobType),
			template.HTMLEscapeString(j.Level),
			template.HTMLEscapeString(j.Description),
			renderTags(j.Skills),
			template.HTMLEscapeString(j.Salary),
			template.HTMLEscapeString(j.Posted))
	}
}

func renderEmptyState(w http.ResponseWriter, title string, filtered bool) {
	hint := ""
	if filtered {
		hint = `<p class="hint">Try adjusting your filters or search query</p>
			<button class="clear-filters" onclick="clearFilters()">Clear Filters</button>`
	}
	fmt.Fprintf(w, `<div class="no-results">
			<p>%s</p>
			%s
		</div>`, template.HTMLEscapeString(title), hint)
}

func renderTags(values []string) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, `<span class="tag">%s</span>`, template.HTMLEscapeString(v))
	}
	return b.String()
}

// formatRating prints 4.5 as "4.5" and 4 as "4"
func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
