package catalog

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed seed.yaml
var seedYAML []byte

var (
	seedOnce    sync.Once
	seedCatalog Catalog
)

// Seed returns the built-in directory: eight companies, ten jobs and the
// sample reviews of TechVision Labs. Each call returns fresh slices.
func Seed() Catalog {
	seedOnce.Do(func() {
		c, err := decode(seedYAML, ".yaml")
		if err == nil {
			err = c.Validate()
		}
		if err != nil {
			panic(fmt.Sprintf("catalog: built-in seed is invalid: %v", err))
		}
		seedCatalog = c
	})
	return seedCatalog.Clone()
}

// Clone returns a deep copy so callers can never alias each other's records
func (c Catalog) Clone() Catalog {
	out := Catalog{
		Companies: make([]Company, len(c.Companies)),
		Jobs:      make([]Job, len(c.Jobs)),
		Reviews:   make([]Review, len(c.Reviews)),
	}
	for i, company := range c.Companies {
		company.Services = append([]string(nil), company.Services...)
		company.Portfolio = append([]Project(nil), company.Portfolio...)
		out.Companies[i] = company
	}
	for i, job := range c.Jobs {
		job.Skills = append([]string(nil), job.Skills...)
		job.Responsibilities = append([]string(nil), job.Responsibilities...)
		job.Requirements = append([]string(nil), job.Requirements...)
		out.Jobs[i] = job
	}
	copy(out.Reviews, c.Reviews)
	return out
}
