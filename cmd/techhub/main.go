package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/techhub-pk/techhub/internal/catalog"
	"github.com/techhub-pk/techhub/internal/config"
	"github.com/techhub-pk/techhub/internal/filter"
	"github.com/techhub-pk/techhub/internal/ingest"
	"github.com/techhub-pk/techhub/internal/search"
	"github.com/techhub-pk/techhub/internal/storage"
	"github.com/techhub-pk/techhub/internal/web"
)

var cfg config.Config

func main() {
	cfg = config.Load()

	// Parse global flags
	globalFlags := flag.NewFlagSet("global", flag.ExitOnError)
	dataDirFlag := globalFlags.String("data-dir", cfg.DataDir, "Directory for database and index files")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Find where the command starts (skip global flags)
	commandIdx := 1
	for i := 1; i < len(os.Args); i++ {
		if !strings.HasPrefix(os.Args[i], "-") {
			commandIdx = i
			break
		}
	}

	if commandIdx > 1 {
		globalFlags.Parse(os.Args[1:commandIdx])
	}
	cfg.DataDir = *dataDirFlag

	command := os.Args[commandIdx]
	args := os.Args[commandIdx+1:]

	switch command {
	case "seed":
		seedFlags := flag.NewFlagSet("seed", flag.ExitOnError)
		file := seedFlags.String("file", cfg.CatalogPath, "YAML or JSON catalog to load instead of the built-in data")
		seedFlags.Parse(args)

		runSeed(*file)
	case "companies":
		companyFlags := flag.NewFlagSet("companies", flag.ExitOnError)
		city := companyFlags.String("city", "", "Only companies in this city")
		var services serviceList
		companyFlags.Var(&services, "service", "Offered service (repeatable, any match)")
		minRating := companyFlags.Float64("min-rating", 0, "Minimum rating")
		companyFlags.Parse(args)

		if math.IsNaN(*minRating) || math.IsInf(*minRating, 0) {
			log.Fatalf("Error: invalid -min-rating %v", *minRating)
		}

		criteria := filter.CompanyCriteria{
			Query:     strings.Join(companyFlags.Args(), " "),
			Services:  filter.Select(services...),
			MinRating: *minRating,
		}
		if flagSet(companyFlags, "city") {
			criteria.City = filter.Only(*city)
		}
		runCompanies(criteria)
	case "jobs":
		jobFlags := flag.NewFlagSet("jobs", flag.ExitOnError)
		city := jobFlags.String("city", "", "Only jobs in this city")
		jobType := jobFlags.String("type", "", "Employment type (e.g. Full-time, Freelance)")
		level := jobFlags.String("level", "", "Seniority level (e.g. Junior, Mid-level, Senior)")
		jobFlags.Parse(args)

		criteria := filter.JobCriteria{Query: strings.Join(jobFlags.Args(), " ")}
		if flagSet(jobFlags, "city") {
			criteria.City = filter.Only(*city)
		}
		if flagSet(jobFlags, "type") {
			criteria.JobType = filter.Only(*jobType)
		}
		if flagSet(jobFlags, "level") {
			criteria.Level = filter.Only(*level)
		}
		runJobs(criteria)
	case "facets":
		runFacets()
	case "search":
		searchFlags := flag.NewFlagSet("search", flag.ExitOnError)
		kind := searchFlags.String("kind", "", "Restrict to company or job")
		limit := searchFlags.Int("limit", 10, "Maximum number of results")
		searchFlags.Parse(args)

		if searchFlags.NArg() < 1 {
			fmt.Println("Error: search query required")
			fmt.Println("Usage: techhub [--data-dir=<dir>] search [flags] <query>")
			os.Exit(1)
		}

		runSearch(strings.Join(searchFlags.Args(), " "), *kind, *limit)
	case "show-company":
		runShowCompany(requireID(args, "show-company"))
	case "show-job":
		runShowJob(requireID(args, "show-job"))
	case "serve":
		serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)
		port := serveFlags.String("port", cfg.Port, "Port to listen on")
		host := serveFlags.String("host", cfg.Host, "Host to bind to")
		serveFlags.Parse(args)

		runServe(*host, *port)
	case "reindex":
		runReindex()
	case "stats":
		runStats()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("TechHub - Software company and job directory")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  techhub [global-flags] <command> [flags]")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --data-dir=<dir>  Directory for database and index files (default: ./data, env TECHHUB_DATA_DIR)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  seed [flags]              Load the catalog into the database and search index")
	fmt.Println("  companies [flags] [query] Filter companies")
	fmt.Println("  jobs [flags] [query]      Filter job postings")
	fmt.Println("  facets                    List the values offered by every facet")
	fmt.Println("  search [flags] <query>    Full-text search across companies and jobs")
	fmt.Println("  show-company <id>         Show a company with its reviews and open positions")
	fmt.Println("  show-job <id>             Show a job posting")
	fmt.Println("  serve [flags]             Start web server")
	fmt.Println("  reindex                   Rebuild the search index from the database")
	fmt.Println("  stats                     Show database and index statistics")
	fmt.Println()
	fmt.Println("Seed Flags:")
	fmt.Println("  -file=<path>       Catalog file (.yaml, .yml or .json); default is the built-in data")
	fmt.Println()
	fmt.Println("Company Flags:")
	fmt.Println("  -city=<city>       Only companies in this city")
	fmt.Println("  -service=<name>    Offered service; repeat to match any of several")
	fmt.Println("  -min-rating=<n>    Minimum rating (offered levels: 4, 4.5, 4.8)")
	fmt.Println()
	fmt.Println("Job Flags:")
	fmt.Println("  -city=<city>       Only jobs in this city")
	fmt.Println("  -type=<type>       Employment type")
	fmt.Println("  -level=<level>     Seniority level")
	fmt.Println()
	fmt.Println("Search Flags:")
	fmt.Println("  -kind=<kind>       Restrict to company or job")
	fmt.Println("  -limit=<n>         Maximum results (default: 10)")
	fmt.Println()
	fmt.Println("Serve Flags:")
	fmt.Println("  -host=<host>       Host to bind to (default: localhost)")
	fmt.Println("  -port=<port>       Port to listen on (default: 6894)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  techhub seed")
	fmt.Println("  techhub companies -city=Islamabad -min-rating=4.8")
	fmt.Println("  techhub companies -service=AI/ML -service=CMS")
	fmt.Println("  techhub jobs -level=Junior react")
	fmt.Println("  techhub search -kind=job kubernetes")
	fmt.Println("  techhub serve -port=3000")
}

// serviceList collects a repeatable -service flag
type serviceList []string

func (s *serviceList) String() string { return strings.Join(*s, ",") }

func (s *serviceList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// flagSet reports whether name was given on the command line, so an
// explicit empty value still selects
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func requireID(args []string, command string) int {
	if len(args) < 1 {
		fmt.Println("Error: record ID required")
		fmt.Printf("Usage: techhub [--data-dir=<dir>] %s <id>\n", command)
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Error: invalid ID %q", args[0])
	}
	return id
}

func openDB() *storage.DB {
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	return db
}

func openIndex() *search.Index {
	idx, err := search.Open(cfg.IndexPath())
	if err != nil {
		log.Fatalf("Error opening search index: %v", err)
	}
	return idx
}

// loadCatalog reads the stored catalog, falling back to the built-in data
// when nothing has been seeded yet
func loadCatalog() catalog.Catalog {
	if _, err := os.Stat(cfg.DBPath()); os.IsNotExist(err) {
		log.Printf("No database at %s, using built-in data (run 'techhub seed' to persist it)", cfg.DBPath())
		return catalog.Seed()
	}

	db := openDB()
	defer db.Close()

	c, err := db.LoadCatalog()
	if err != nil {
		log.Fatalf("Error loading catalog: %v", err)
	}
	if len(c.Companies) == 0 && len(c.Jobs) == 0 {
		log.Printf("Database is empty, using built-in data (run 'techhub seed' to persist it)")
		return catalog.Seed()
	}
	return c
}

func runSeed(file string) {
	c := catalog.Seed()
	if file != "" {
		var err error
		c, err = catalog.LoadFile(file)
		if err != nil {
			log.Fatalf("Error loading catalog: %v", err)
		}
		log.Printf("Loaded catalog from %s", file)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Error creating data directory: %v", err)
	}

	db := openDB()
	defer db.Close()

	idx := openIndex()
	defer idx.Close()

	worker := ingest.NewWorker(db, idx)
	stats, err := worker.Load(context.Background(), c)
	if err != nil {
		log.Fatalf("Error loading catalog: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Seed Complete ===")
	fmt.Printf("Total records: %d\n", stats.Total)
	fmt.Printf("New:           %d\n", stats.New)
	fmt.Printf("Updated:       %d\n", stats.Updated)
	fmt.Printf("Skipped:       %d\n", stats.Skipped)
	fmt.Printf("Removed:       %d\n", stats.Removed)
	fmt.Printf("Errors:        %d\n", stats.Errors)
	fmt.Printf("Duration:      %v\n", stats.Duration)
}

func runCompanies(criteria filter.CompanyCriteria) {
	c := loadCatalog()
	results := filter.FilterCompanies(c.Companies, criteria)

	fmt.Printf("Showing %d of %d companies\n\n", len(results), len(c.Companies))
	if len(results) == 0 {
		fmt.Println("No companies found")
		if !criteria.IsZero() {
			fmt.Println("Try adjusting your filters or search query")
		}
		return
	}

	for _, company := range results {
		fmt.Printf("%d. %s (%s)\n", company.ID, company.Name, company.City)
		fmt.Printf("   Rating:   %s (%d reviews)\n", strconv.FormatFloat(company.Rating, 'f', -1, 64), company.ReviewCount)
		fmt.Printf("   Services: %s\n", strings.Join(company.Services, ", "))
		fmt.Printf("   %s\n", company.Description)
		fmt.Println()
	}
}

func runJobs(criteria filter.JobCriteria) {
	c := loadCatalog()
	results := filter.FilterJobs(c.Jobs, criteria)

	fmt.Printf("Showing %d of %d jobs\n\n", len(results), len(c.Jobs))
	if len(results) == 0 {
		fmt.Println("No jobs found")
		if !criteria.IsZero() {
			fmt.Println("Try adjusting your filters or search query")
		}
		return
	}

	for _, job := range results {
		fmt.Printf("%d. %s at %s\n", job.ID, job.Title, job.Company)
		fmt.Printf("   %s | %s | %s\n", job.City, job.JobType, job.Level)
		if job.Salary != "" {
			fmt.Printf("   Salary: %s\n", job.Salary)
		}
		fmt.Printf("   Skills: %s\n", strings.Join(job.Skills, ", "))
		fmt.Println()
	}
}

func runFacets() {
	c := loadCatalog()

	levels := make([]string, 0, len(filter.RatingLevels))
	for _, l := range filter.RatingLevels {
		levels = append(levels, strconv.FormatFloat(l, 'f', -1, 64))
	}

	fmt.Println("=== Company Facets ===")
	fmt.Printf("City:       %s\n", strings.Join(filter.CompanyCities(c.Companies), ", "))
	fmt.Printf("Services:   %s\n", strings.Join(filter.CompanyServices(c.Companies), ", "))
	fmt.Printf("Min rating: %s\n", strings.Join(levels, ", "))
	fmt.Println()
	fmt.Println("=== Job Facets ===")
	fmt.Printf("City:       %s\n", strings.Join(filter.JobCities(c.Jobs), ", "))
	fmt.Printf("Type:       %s\n", strings.Join(filter.JobTypes(c.Jobs), ", "))
	fmt.Printf("Level:      %s\n", strings.Join(filter.JobLevels(c.Jobs), ", "))
}

func runSearch(query, kind string, limit int) {
	idx := openIndex()
	defer idx.Close()

	results, err := idx.Search(query, kind, limit)
	if err != nil {
		log.Fatalf("Error searching: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("\nFound %d results:\n\n", len(results))

	for i, result := range results {
		fmt.Printf("%d. [%s] %s\n", i+1, result.Kind, result.Title)
		if result.Subtitle != "" {
			fmt.Printf("   %s\n", result.Subtitle)
		}
		fmt.Printf("   City:  %s\n", result.City)
		fmt.Printf("   Score: %.3f\n", result.Score)
		fmt.Println()
	}
}

func runShowCompany(id int) {
	c := loadCatalog()

	company, ok := c.Company(id)
	if !ok {
		fmt.Printf("Company not found: %d\n", id)
		os.Exit(1)
	}

	fmt.Printf("%s\n", company.Name)
	fmt.Printf("%s | Rating %s (%d reviews)\n", company.City, strconv.FormatFloat(company.Rating, 'f', -1, 64), company.ReviewCount)
	fmt.Printf("Services: %s\n", strings.Join(company.Services, ", "))
	fmt.Println()
	if company.FullDescription != "" {
		fmt.Println(company.FullDescription)
	} else {
		fmt.Println(company.Description)
	}
	fmt.Println()

	for _, line := range [][2]string{
		{"Website", company.Website},
		{"Email", company.Email},
		{"Phone", company.Phone},
		{"Address", company.Address},
		{"Employees", company.Employees},
		{"Founded", company.Founded},
	} {
		if line[1] != "" {
			fmt.Printf("%-10s %s\n", line[0]+":", line[1])
		}
	}

	if len(company.Portfolio) > 0 {
		fmt.Println()
		fmt.Println("Portfolio:")
		for _, p := range company.Portfolio {
			fmt.Printf("  - %s (%s, %d)\n", p.Title, p.Client, p.Year)
		}
	}

	if jobs := c.JobsAt(company.Name); len(jobs) > 0 {
		fmt.Println()
		fmt.Println("Open Positions:")
		for _, j := range jobs {
			fmt.Printf("  %d. %s (%s, %s)\n", j.ID, j.Title, j.JobType, j.Level)
		}
	}

	if reviews := c.ReviewsFor(company.ID); len(reviews) > 0 {
		fmt.Println()
		fmt.Println("Reviews:")
		for _, r := range reviews {
			fmt.Printf("  %s - %s (%s)\n", strconv.FormatFloat(r.Rating, 'f', -1, 64), r.Title, r.Author)
		}
	}
}

func runShowJob(id int) {
	c := loadCatalog()

	job, ok := c.Job(id)
	if !ok {
		fmt.Printf("Job not found: %d\n", id)
		os.Exit(1)
	}

	fmt.Printf("%s at %s\n", job.Title, job.Company)
	fmt.Printf("%s | %s | %s\n", job.City, job.JobType, job.Level)
	if job.Salary != "" {
		fmt.Printf("Salary: %s\n", job.Salary)
	}
	if job.Posted != "" {
		fmt.Printf("Posted: %s\n", job.Posted)
	}
	fmt.Println()
	if job.FullDescription != "" {
		fmt.Println(job.FullDescription)
	} else {
		fmt.Println(job.Description)
	}

	printList("Responsibilities", job.Responsibilities)
	printList("Requirements", job.Requirements)
	printList("Skills", job.Skills)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func runReindex() {
	fmt.Println("Rebuilding search index...")
	fmt.Println()

	db := openDB()
	defer db.Close()

	c, err := db.LoadCatalog()
	if err != nil {
		log.Fatalf("Error loading catalog: %v", err)
	}

	fmt.Printf("Found %d companies and %d jobs in database\n", len(c.Companies), len(c.Jobs))
	startTime := time.Now()

	idx := openIndex()
	defer idx.Close()

	progressFn := func(current, total int) {
		percent := float64(current) / float64(total) * 100
		fmt.Printf("\rIndexing: %d/%d (%.1f%%)  ", current, total, percent)
	}

	if err := idx.Rebuild(c, progressFn); err != nil {
		log.Fatalf("\nError rebuilding index: %v", err)
	}

	indexCount, err := idx.Count()
	if err != nil {
		log.Fatalf("\nError getting index count: %v", err)
	}

	fmt.Println()
	fmt.Println()
	fmt.Println("=== Reindex Complete ===")
	fmt.Printf("Documents indexed: %d\n", indexCount)
	fmt.Printf("Duration:          %v\n", time.Since(startTime).Round(time.Millisecond))
}

func runStats() {
	db := openDB()
	defer db.Close()

	idx := openIndex()
	defer idx.Close()

	fmt.Println("=== Statistics ===")
	for _, kind := range []string{storage.KindCompany, storage.KindJob, storage.KindReview} {
		n, err := db.Count(kind)
		if err != nil {
			log.Fatalf("Error counting %s: %v", kind, err)
		}
		fmt.Printf("%-10s in database: %d\n", kind, n)
	}

	indexCount, err := idx.Count()
	if err != nil {
		log.Fatalf("Error getting index count: %v", err)
	}
	fmt.Printf("Documents in index:    %d\n", indexCount)
}

func runServe(host, port string) {
	c := loadCatalog()

	// The index is optional; without it the directory still filters
	var idx *search.Index
	if _, err := os.Stat(cfg.IndexPath()); err == nil {
		idx = openIndex()
		defer idx.Close()
	} else {
		log.Printf("Warning: no search index at %s, full-text search disabled", cfg.IndexPath())
	}

	server, err := web.NewServer(c, idx)
	if err != nil {
		log.Fatalf("Error creating server: %v", err)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	fmt.Println()
	fmt.Println("=== TechHub Web Server ===")
	fmt.Printf("Server running at: http://%s\n", addr)
	fmt.Printf("Serving %d companies and %d jobs\n", len(c.Companies), len(c.Jobs))
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
