package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/sites"
)

type mockListingRepo struct {
	existing map[string]bool // name+source pairs treated as active duplicates
	inserted []database.ListingRecord
	seenURLs map[string]bool
}

func newMockListingRepo() *mockListingRepo {
	return &mockListingRepo{
		existing: make(map[string]bool),
		seenURLs: make(map[string]bool),
	}
}

func (m *mockListingRepo) GetListing(id string) (*database.Listing, error) { return nil, nil }
func (m *mockListingRepo) GetListings(query database.ListingQuery) ([]database.Listing, error) {
	return nil, nil
}
func (m *mockListingRepo) GetListingCount() (int, error) { return len(m.inserted), nil }
func (m *mockListingRepo) GetListingStats() (database.ListingStats, error) {
	return database.ListingStats{}, nil
}

func (m *mockListingRepo) ExistsActive(name, source string) (bool, error) {
	return m.existing[name+"|"+source], nil
}

func (m *mockListingRepo) InsertListing(record database.ListingRecord) (bool, error) {
	if m.seenURLs[record.OriginalURL] {
		return false, nil
	}
	m.seenURLs[record.OriginalURL] = true
	m.inserted = append(m.inserted, record)
	return true, nil
}

func (m *mockListingRepo) GetListingsForVerification(staleBefore time.Time, limit int) ([]database.Listing, error) {
	return nil, nil
}
func (m *mockListingRepo) UpdateVerificationStatus(id string, status string, isActive bool, verifiedAt time.Time) error {
	return nil
}
func (m *mockListingRepo) GetListingsForEnrichment(limit int) ([]database.Listing, error) {
	return nil, nil
}
func (m *mockListingRepo) UpdateEnrichedDescription(id string, description string, status string, errorMsg string) error {
	return nil
}
func (m *mockListingRepo) DeleteAllListings() (int64, error) { return 0, nil }

type mockSiteRepo struct {
	schedules map[string]time.Time
}

func newMockSiteRepo() *mockSiteRepo {
	return &mockSiteRepo{schedules: make(map[string]time.Time)}
}

func (m *mockSiteRepo) GetSite(siteName string) (*database.Site, error) { return nil, nil }
func (m *mockSiteRepo) GetSiteCount() (int, error)                      { return 0, nil }
func (m *mockSiteRepo) UpsertSite(siteName, baseURL string) error       { return nil }
func (m *mockSiteRepo) UpdateScrapeSchedule(siteName string, nextScrapeAt time.Time) error {
	m.schedules[siteName] = nextScrapeAt
	return nil
}
func (m *mockSiteRepo) SetSiteEnabled(siteName string, enabled bool) error { return nil }

type mockRunRepo struct {
	started   []string
	completed []string
	failed    []string
}

func (m *mockRunRepo) StartRun(site string) (string, error) {
	m.started = append(m.started, site)
	return "run-" + site, nil
}
func (m *mockRunRepo) CompleteRun(id string, pagesFetched, found, saved, duplicates int) error {
	m.completed = append(m.completed, id)
	return nil
}
func (m *mockRunRepo) FailRun(id string, errorMsg string) error {
	m.failed = append(m.failed, id)
	return nil
}
func (m *mockRunRepo) GetRecentRuns(limit int) ([]database.ScrapeRun, error) { return nil, nil }
func (m *mockRunRepo) GetLastRunForSite(site string) (*database.ScrapeRun, error) {
	return nil, nil
}

type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pages[url], nil
}

func (f *fakeFetcher) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.pages[url]), nil
}

func writeSiteConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const testSiteYAML = `base_url: https://example.com
listing_pages:
  - https://example.com/listings
link_fragment: /business/
selectors:
  container:
    - div.listing
  name:
    - h3.title
  price:
    - span.price
  link:
    - a.details
  description:
    - p.summary
settings:
  enabled: true
  page_delay: 0
`

func newTestRunner(t *testing.T, fetcher Fetcher, listingRepo database.ListingRepository,
	runRepo database.RunRepository, cooldown time.Duration) (*Runner, *mockSiteRepo) {
	t.Helper()

	dir := t.TempDir()
	writeSiteConfig(t, dir, "testmarket", testSiteYAML)

	configCache := sites.NewConfigCache(dir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	siteRepo := newMockSiteRepo()
	return NewRunner(configCache, fetcher, listingRepo, siteRepo, runRepo, cooldown), siteRepo
}

func TestRunAllPipeline(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}
	listingRepo := newMockListingRepo()
	runRepo := &mockRunRepo{}

	runner, siteRepo := newTestRunner(t, fetcher, listingRepo, runRepo, 0)

	result, err := runner.RunAll(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalFound != 3 {
		t.Errorf("Expected 3 listings found, got %d", result.TotalFound)
	}
	if result.TotalSaved != 3 {
		t.Errorf("Expected 3 listings saved, got %d", result.TotalSaved)
	}
	if result.DuplicatesSkipped != 0 {
		t.Errorf("Expected no duplicates, got %d", result.DuplicatesSkipped)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}

	if len(runRepo.started) != 1 || len(runRepo.completed) != 1 {
		t.Errorf("Expected one started and completed run, got %d/%d", len(runRepo.started), len(runRepo.completed))
	}

	if _, ok := siteRepo.schedules["testmarket"]; !ok {
		t.Error("Expected next scrape to be scheduled")
	}
}

func TestRunAllDedupeByNameAndSource(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}
	listingRepo := newMockListingRepo()
	listingRepo.existing["Profitable Amazon FBA Brand|testmarket"] = true

	runner, _ := newTestRunner(t, fetcher, listingRepo, &mockRunRepo{}, 0)

	result, err := runner.RunAll(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalSaved != 2 {
		t.Errorf("Expected 2 listings saved, got %d", result.TotalSaved)
	}
	if result.DuplicatesSkipped != 1 {
		t.Errorf("Expected 1 duplicate skipped, got %d", result.DuplicatesSkipped)
	}
}

func TestRunAllDedupeByURL(t *testing.T) {
	listingRepo := newMockListingRepo()
	listingRepo.seenURLs["https://example.com/business/fba-brand-123"] = true

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}

	runner, _ := newTestRunner(t, fetcher, listingRepo, &mockRunRepo{}, 0)

	result, err := runner.RunAll(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalSaved != 2 {
		t.Errorf("Expected 2 listings saved, got %d", result.TotalSaved)
	}
	if result.DuplicatesSkipped != 1 {
		t.Errorf("Expected 1 duplicate skipped, got %d", result.DuplicatesSkipped)
	}
}

func TestRunAllCooldown(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}

	runner, _ := newTestRunner(t, fetcher, newMockListingRepo(), &mockRunRepo{}, time.Minute)

	if _, err := runner.RunAll(context.Background(), RunOptions{}); err != nil {
		t.Fatal(err)
	}

	_, err := runner.RunAll(context.Background(), RunOptions{})
	if !errors.Is(err, ErrCooldownActive) {
		t.Errorf("Expected ErrCooldownActive inside cooldown window, got %v", err)
	}

	if !runner.Busy() {
		t.Error("Expected runner to report busy during cooldown")
	}
}

func TestScrapeSiteBlockedDuringCooldown(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}

	runner, _ := newTestRunner(t, fetcher, newMockListingRepo(), &mockRunRepo{}, time.Minute)

	if _, err := runner.RunAll(context.Background(), RunOptions{}); err != nil {
		t.Fatal(err)
	}

	cfg, err := runner.configCache.GetConfig("testmarket")
	if err != nil {
		t.Fatal(err)
	}

	// Single-site scrapes go through the same gate as full runs.
	_, err = runner.ScrapeSite(context.Background(), cfg, 0)
	if !errors.Is(err, ErrCooldownActive) {
		t.Errorf("Expected ErrCooldownActive for single-site scrape inside cooldown, got %v", err)
	}
}

func TestScrapeSiteAdvancesCooldown(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}
	listingRepo := newMockListingRepo()

	runner, _ := newTestRunner(t, fetcher, listingRepo, &mockRunRepo{}, time.Minute)

	cfg, err := runner.configCache.GetConfig("testmarket")
	if err != nil {
		t.Fatal(err)
	}

	result, err := runner.ScrapeSite(context.Background(), cfg, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.ListingsSaved != 3 {
		t.Errorf("Expected 3 listings saved, got %d", result.ListingsSaved)
	}

	// A full run right after a single-site scrape hits the shared cooldown.
	_, err = runner.RunAll(context.Background(), RunOptions{})
	if !errors.Is(err, ErrCooldownActive) {
		t.Errorf("Expected ErrCooldownActive after single-site scrape, got %v", err)
	}
	if !runner.Busy() {
		t.Error("Expected runner to report busy after single-site scrape")
	}
}

func TestRunAllParallel(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/listings": listingPageHTML,
	}}
	listingRepo := newMockListingRepo()

	runner, _ := newTestRunner(t, fetcher, listingRepo, &mockRunRepo{}, 0)

	result, err := runner.RunAll(context.Background(), RunOptions{Parallel: true})
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalSaved != 3 {
		t.Errorf("Expected 3 listings saved, got %d", result.TotalSaved)
	}
}

func TestRunAllSiteFailureDoesNotAbortBatch(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	runRepo := &mockRunRepo{}

	runner, _ := newTestRunner(t, fetcher, newMockListingRepo(), runRepo, 0)

	result, err := runner.RunAll(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 aggregated error, got %v", result.Errors)
	}
	if len(runRepo.failed) != 1 {
		t.Errorf("Expected the run to be recorded as failed, got %d", len(runRepo.failed))
	}
}

func TestRunAllUnknownSiteSkipped(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{}}

	runner, _ := newTestRunner(t, fetcher, newMockListingRepo(), &mockRunRepo{}, 0)

	result, err := runner.RunAll(context.Background(), RunOptions{Sites: []string{"nonexistent"}})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.SiteBreakdown) != 0 {
		t.Errorf("Expected no sites scraped, got %d", len(result.SiteBreakdown))
	}
}
