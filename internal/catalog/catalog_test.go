package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techhub-pk/techhub/internal/catalog"
)

func TestSeed(t *testing.T) {
	seed := catalog.Seed()
	require.NoError(t, seed.Validate())
	assert.Len(t, seed.Companies, 8)
	assert.Len(t, seed.Jobs, 10)
	assert.Len(t, seed.Reviews, 4)

	first := seed.Companies[0]
	assert.Equal(t, "TechVision Labs", first.Name)
	assert.Equal(t, 4.8, first.Rating)
	assert.Equal(t, []string{"Web Development", "Mobile Apps", "AI/ML"}, first.Services)
	assert.Len(t, first.Portfolio, 3)

	assert.Equal(t, "Freelance", seed.Jobs[8].JobType)
}

func TestSeed_ReturnsIndependentCopies(t *testing.T) {
	a := catalog.Seed()
	a.Companies[0].Services[0] = "changed"
	a.Jobs[0].Title = "changed"

	b := catalog.Seed()
	assert.Equal(t, "Web Development", b.Companies[0].Services[0])
	assert.Equal(t, "Senior Full Stack Developer", b.Jobs[0].Title)
}

func TestLookups(t *testing.T) {
	seed := catalog.Seed()

	c, ok := seed.Company(3)
	require.True(t, ok)
	assert.Equal(t, "CloudNine Systems", c.Name)
	_, ok = seed.Company(99)
	assert.False(t, ok)

	j, ok := seed.Job(9)
	require.True(t, ok)
	assert.Equal(t, "Backend Developer (Freelance)", j.Title)
	_, ok = seed.Job(0)
	assert.False(t, ok)

	assert.Len(t, seed.ReviewsFor(1), 4)
	assert.Empty(t, seed.ReviewsFor(2))

	var titles []string
	for _, j := range seed.JobsAt("TechVision Labs") {
		titles = append(titles, j.Title)
	}
	assert.Equal(t, []string{"Senior Full Stack Developer", "Backend Developer (Freelance)"}, titles)
}

// ── Validate ───────────────────────────────────────────────────────────────

func TestValidate_Failures(t *testing.T) {
	valid := catalog.Company{ID: 1, Name: "A", City: "Lahore", Rating: 4, Services: []string{"CMS"}}

	cases := []struct {
		name string
		cat  catalog.Catalog
	}{
		{"no services", catalog.Catalog{Companies: []catalog.Company{{ID: 1, Name: "A", Rating: 4}}}},
		{"rating above five", catalog.Catalog{Companies: []catalog.Company{{ID: 1, Name: "A", Rating: 5.1, Services: []string{"CMS"}}}}},
		{"negative rating", catalog.Catalog{Companies: []catalog.Company{{ID: 1, Name: "A", Rating: -0.5, Services: []string{"CMS"}}}}},
		{"blank name", catalog.Catalog{Companies: []catalog.Company{{ID: 1, Name: "  ", Services: []string{"CMS"}}}}},
		{"duplicate company", catalog.Catalog{Companies: []catalog.Company{valid, valid}}},
		{"blank job title", catalog.Catalog{Jobs: []catalog.Job{{ID: 1}}}},
		{"duplicate job", catalog.Catalog{Jobs: []catalog.Job{{ID: 1, Title: "x"}, {ID: 1, Title: "y"}}}},
		{"review rating", catalog.Catalog{Companies: []catalog.Company{valid}, Reviews: []catalog.Review{{ID: 1, CompanyID: 1, Rating: 6}}}},
		{"duplicate review", catalog.Catalog{Companies: []catalog.Company{valid}, Reviews: []catalog.Review{{ID: 1, CompanyID: 1, Rating: 4}, {ID: 1, CompanyID: 1, Rating: 5}}}},
		{"review of unknown company", catalog.Catalog{Companies: []catalog.Company{valid}, Reviews: []catalog.Review{{ID: 1, CompanyID: 2, Rating: 4}}}},
		{"review without companies", catalog.Catalog{Reviews: []catalog.Review{{ID: 1, CompanyID: 1, Rating: 4}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, c.cat.Validate(), catalog.ErrInvalidRecord)
		})
	}
}

func TestValidate_BoundsInclusive(t *testing.T) {
	cat := catalog.Catalog{Companies: []catalog.Company{
		{ID: 1, Name: "Zero", Rating: 0, Services: []string{"CMS"}},
		{ID: 2, Name: "Five", Rating: 5, Services: []string{"CMS"}},
	}}
	assert.NoError(t, cat.Validate())
}

func TestValidate_ReviewOfListedCompany(t *testing.T) {
	cat := catalog.Catalog{
		Companies: []catalog.Company{{ID: 4, Name: "A", Rating: 4, Services: []string{"CMS"}}},
		Reviews:   []catalog.Review{{ID: 1, CompanyID: 4, Rating: 5}},
	}
	assert.NoError(t, cat.Validate())
	assert.Len(t, cat.ReviewsFor(4), 1)
}

// ── LoadFile ───────────────────────────────────────────────────────────────

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
companies:
  - id: 7
    name: "Karachi Code Works"
    city: "Karachi"
    rating: 4.2
    services: ["Web Development"]
    description: "Agency"
jobs:
  - id: 1
    title: "Go Developer"
    company: "Karachi Code Works"
    city: "Karachi"
    job_type: "Contract"
    level: "Mid-level"
    skills: ["Go"]
`), 0o644))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Companies, 1)
	assert.Equal(t, "Karachi", c.Companies[0].City)
	require.Len(t, c.Jobs, 1)
	assert.Equal(t, "Contract", c.Jobs[0].JobType)
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"companies":[{"id":1,"name":"A","city":"Lahore","rating":3,"services":["CMS"]}]}`), 0o644))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A", c.Companies[0].Name)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := catalog.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "catalog.txt")
	require.NoError(t, os.WriteFile(txt, []byte("companies: []"), 0o644))
	_, err = catalog.LoadFile(txt)
	assert.ErrorContains(t, err, "unsupported catalog format")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"companies":[{"id":1,"name":"A","rating":9,"services":["CMS"]}]}`), 0o644))
	_, err = catalog.LoadFile(bad)
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)
}
