// Package catalog holds the immutable company, job and review records
// served by the directory.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is a full snapshot of the directory
type Catalog struct {
	Companies []Company `json:"companies" yaml:"companies"`
	Jobs      []Job     `json:"jobs" yaml:"jobs"`
	Reviews   []Review  `json:"reviews" yaml:"reviews"`
}

// Validate checks every record, that IDs are unique per kind and that every
// review belongs to a listed company
func (c Catalog) Validate() error {
	seen := make(map[int]bool, len(c.Companies))
	for _, company := range c.Companies {
		if err := company.Validate(); err != nil {
			return err
		}
		if seen[company.ID] {
			return fmt.Errorf("%w: duplicate company id %d", ErrInvalidRecord, company.ID)
		}
		seen[company.ID] = true
	}

	companies := seen

	seen = make(map[int]bool, len(c.Jobs))
	for _, job := range c.Jobs {
		if err := job.Validate(); err != nil {
			return err
		}
		if seen[job.ID] {
			return fmt.Errorf("%w: duplicate job id %d", ErrInvalidRecord, job.ID)
		}
		seen[job.ID] = true
	}

	seen = make(map[int]bool, len(c.Reviews))
	for _, review := range c.Reviews {
		if err := review.Validate(); err != nil {
			return err
		}
		if seen[review.ID] {
			return fmt.Errorf("%w: duplicate review id %d", ErrInvalidRecord, review.ID)
		}
		if !companies[review.CompanyID] {
			return fmt.Errorf("%w: review %d: unknown company id %d", ErrInvalidRecord, review.ID, review.CompanyID)
		}
		seen[review.ID] = true
	}

	return nil
}

// Company returns the company with the given ID
func (c Catalog) Company(id int) (Company, bool) {
	for _, company := range c.Companies {
		if company.ID == id {
			return company, true
		}
	}
	return Company{}, false
}

// Job returns the job with the given ID
func (c Catalog) Job(id int) (Job, bool) {
	for _, job := range c.Jobs {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

// ReviewsFor returns the reviews of a company in catalog order
func (c Catalog) ReviewsFor(companyID int) []Review {
	var reviews []Review
	for _, r := range c.Reviews {
		if r.CompanyID == companyID {
			reviews = append(reviews, r)
		}
	}
	return reviews
}

// JobsAt returns the open positions posted under a company name
func (c Catalog) JobsAt(companyName string) []Job {
	var jobs []Job
	for _, j := range c.Jobs {
		if j.Company == companyName {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// LoadFile reads a catalog from a YAML or JSON file and validates it
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	c, err := decode(data, filepath.Ext(path))
	if err != nil {
		return Catalog{}, err
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("validate catalog %s: %w", path, err)
	}

	return c, nil
}

func decode(data []byte, ext string) (Catalog, error) {
	var c Catalog
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Catalog{}, fmt.Errorf("parse yaml catalog: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return Catalog{}, fmt.Errorf("parse json catalog: %w", err)
		}
	default:
		return Catalog{}, fmt.Errorf("unsupported catalog format %q (supported: .yaml, .yml, .json)", ext)
	}
	return c, nil
}
