package scraper

// Candidate is a listing extracted from a marketplace page, before
// deduplication and persistence.
type Candidate struct {
	Name          string
	Description   string
	AskingPrice   int64 // whole dollars
	AnnualRevenue int64
	Industry      string
	Location      string
	Source        string
	Highlights    []string
	OriginalURL   string
}

// ExtractionStats counts what happened to the elements matched on a page.
// Skipped elements (failed name or URL extraction) are not reported as parse
// errors; the count exists so run logs can surface the silent data loss.
type ExtractionStats struct {
	Matched int
	Skipped int
}
