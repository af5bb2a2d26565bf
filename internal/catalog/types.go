package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is wrapped by every validation failure
var ErrInvalidRecord = errors.New("invalid record")

// MaxRating is the upper bound of the rating scale
const MaxRating = 5.0

// Company represents a listed software company
type Company struct {
	ID              int       `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Logo            string    `json:"logo,omitempty" yaml:"logo,omitempty"`
	City            string    `json:"city" yaml:"city"`
	Rating          float64   `json:"rating" yaml:"rating"`
	ReviewCount     int       `json:"review_count" yaml:"review_count"`
	Services        []string  `json:"services" yaml:"services"`
	Description     string    `json:"description" yaml:"description"`
	FullDescription string    `json:"full_description,omitempty" yaml:"full_description,omitempty"`
	Website         string    `json:"website,omitempty" yaml:"website,omitempty"`
	Email           string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone           string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address         string    `json:"address,omitempty" yaml:"address,omitempty"`
	Employees       string    `json:"employees,omitempty" yaml:"employees,omitempty"`
	Founded         string    `json:"founded,omitempty" yaml:"founded,omitempty"`
	Portfolio       []Project `json:"portfolio,omitempty" yaml:"portfolio,omitempty"`
}

// Project is a portfolio entry shown on a company page
type Project struct {
	Title  string `json:"title" yaml:"title"`
	Client string `json:"client" yaml:"client"`
	Year   int    `json:"year" yaml:"year"`
}

// Job represents a job posting
type Job struct {
	ID               int      `json:"id" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	Company          string   `json:"company" yaml:"company"`
	City             string   `json:"city" yaml:"city"`
	JobType          string   `json:"job_type" yaml:"job_type"`
	Level            string   `json:"level" yaml:"level"`
	Salary           string   `json:"salary,omitempty" yaml:"salary,omitempty"`
	Description      string   `json:"description" yaml:"description"`
	Skills           []string `json:"skills" yaml:"skills"`
	Posted           string   `json:"posted,omitempty" yaml:"posted,omitempty"`
	FullDescription  string   `json:"full_description,omitempty" yaml:"full_description,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty" yaml:"responsibilities,omitempty"`
	Requirements     []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// Review is a client review of a company
type Review struct {
	ID        int     `json:"id" yaml:"id"`
	CompanyID int     `json:"company_id" yaml:"company_id"`
	Author    string  `json:"author" yaml:"author"`
	Rating    float64 `json:"rating" yaml:"rating"`
	Date      string  `json:"date,omitempty" yaml:"date,omitempty"`
	Title     string  `json:"title" yaml:"title"`
	Content   string  `json:"content" yaml:"content"`
}

// Validate checks the invariants the filter engine relies on
func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: company %d: name is required", ErrInvalidRecord, c.ID)
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("%w: company %d (%s): at least one service is required", ErrInvalidRecord, c.ID, c.Name)
	}
	if err := checkRating(c.Rating); err != nil {
		return fmt.Errorf("%w: company %d (%s): %v", ErrInvalidRecord, c.ID, c.Name, err)
	}
	return nil
}

// Validate checks that a job carries a title
func (j Job) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("%w: job %d: title is required", ErrInvalidRecord, j.ID)
	}
	return nil
}

func (r Review) Validate() error {
	if err := checkRating(r.Rating); err != nil {
		return fmt.Errorf("%w: review %d: %v", ErrInvalidRecord, r.ID, err)
	}
	return nil
}

func checkRating(r float64) error {
	// NaN fails both comparisons, so test the accepted range directly
	if !(r >= 0 && r <= MaxRating) {
		return fmt.Errorf("rating %v outside [0, %v]", r, MaxRating)
	}
	return nil
}
