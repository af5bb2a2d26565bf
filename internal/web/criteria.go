package web

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/techhub-pk/techhub/internal/filter"
)

// choiceParam maps a query parameter to a Choice. A present parameter is a
// selection even when empty; an absent one leaves the facet unset.
func choiceParam(q url.Values, key string) filter.Choice {
	if !q.Has(key) {
		return filter.Any()
	}
	return filter.Only(q.Get(key))
}

func parseCompanyCriteria(q url.Values) (filter.CompanyCriteria, error) {
	c := filter.CompanyCriteria{
		Query:    q.Get("q"),
		City:     choiceParam(q, "city"),
		Services: filter.Select(q["service"]...),
	}

	if raw := strings.TrimSpace(q.Get("min_rating")); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
			return filter.CompanyCriteria{}, fmt.Errorf("invalid min_rating %q", raw)
		}
		c.MinRating = rating
	}

	return c, nil
}

func parseJobCriteria(q url.Values) filter.JobCriteria {
	return filter.JobCriteria{
		Query:   q.Get("q"),
		City:    choiceParam(q, "city"),
		JobType: choiceParam(q, "type"),
		Level:   choiceParam(q, "level"),
	}
}
