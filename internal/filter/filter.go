// Package filter implements the faceted search behind the company and job
// listings: a free-text query combined with facet selections, applied as a
// stable filter over an in-memory record collection.
//
// Criteria are ANDed across facet dimensions. Within the multi-select
// services facet the selected values are ORed. Results keep the input order
// and inputs are never modified.
package filter

import (
	"strings"

	"github.com/techhub-pk/techhub/internal/catalog"
)

// RatingLevels are the minimum-rating thresholds offered to users
var RatingLevels = []float64{0, 4, 4.5, 4.8}

// CompanyCriteria selects companies
type CompanyCriteria struct {
	Query     string
	City      Choice
	Services  Selection
	MinRating float64
}

// IsZero reports whether no filter is active
func (c CompanyCriteria) IsZero() bool {
	return c.Query == "" && !c.City.IsSet() && c.Services.Len() == 0 && c.MinRating == 0
}

// JobCriteria selects jobs
type JobCriteria struct {
	Query   string
	City    Choice
	JobType Choice
	Level   Choice
}

// IsZero reports whether no filter is active
func (c JobCriteria) IsZero() bool {
	return c.Query == "" && !c.City.IsSet() && !c.JobType.IsSet() && !c.Level.IsSet()
}

// FilterCompanies returns the companies matching every criterion, in input order
func FilterCompanies(records []catalog.Company, c CompanyCriteria) []catalog.Company {
	q := strings.ToLower(c.Query)
	out := make([]catalog.Company, 0, len(records))
	for _, r := range records {
		if MatchCompany(r, q, c) {
			out = append(out, r)
		}
	}
	return out
}

// MatchCompany applies the company predicate. lowerQuery must already be
// lowercased so the query is folded once per filter pass.
func MatchCompany(r catalog.Company, lowerQuery string, c CompanyCriteria) bool {
	if !containsFold(lowerQuery, r.Name, r.Description) && !containsFold(lowerQuery, r.Services...) {
		return false
	}
	if !c.City.Matches(r.City) {
		return false
	}
	// an empty selection means every service
	if c.Services.Len() != 0 && !c.Services.Intersects(r.Services) {
		return false
	}
	return r.Rating >= c.MinRating
}

// FilterJobs returns the jobs matching every criterion, in input order
func FilterJobs(records []catalog.Job, c JobCriteria) []catalog.Job {
	q := strings.ToLower(c.Query)
	out := make([]catalog.Job, 0, len(records))
	for _, r := range records {
		if MatchJob(r, q, c) {
			out = append(out, r)
		}
	}
	return out
}

// MatchJob applies the job predicate with an already lowercased query
func MatchJob(r catalog.Job, lowerQuery string, c JobCriteria) bool {
	if !containsFold(lowerQuery, r.Title, r.Company) && !containsFold(lowerQuery, r.Skills...) {
		return false
	}
	return c.City.Matches(r.City) && c.JobType.Matches(r.JobType) && c.Level.Matches(r.Level)
}

func containsFold(lowerQuery string, fields ...string) bool {
	if lowerQuery == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

// CompanyCities returns the cities present in records
func CompanyCities(records []catalog.Company) []string {
	return DistinctBy(records, func(c catalog.Company) []string { return []string{c.City} })
}

// CompanyServices returns every service offered across records
func CompanyServices(records []catalog.Company) []string {
	return DistinctBy(records, func(c catalog.Company) []string { return c.Services })
}

// JobCities returns the cities present in records
func JobCities(records []catalog.Job) []string {
	return DistinctBy(records, func(j catalog.Job) []string { return []string{j.City} })
}

// JobTypes returns the employment types present in records
func JobTypes(records []catalog.Job) []string {
	return DistinctBy(records, func(j catalog.Job) []string { return []string{j.JobType} })
}

// JobLevels returns the seniority levels present in records
func JobLevels(records []catalog.Job) []string {
	return DistinctBy(records, func(j catalog.Job) []string { return []string{j.Level} })
}
