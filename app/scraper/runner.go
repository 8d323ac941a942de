package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/sites"
)

var (
	ErrCooldownActive   = errors.New("scrape cooldown active")
	ErrScrapeInProgress = errors.New("scrape already in progress")
)

// Fetcher is the page-fetching dependency of the runner; satisfied by
// fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	FetchRaw(ctx context.Context, url string) ([]byte, error)
}

// RunOptions controls a full scrape run.
type RunOptions struct {
	// Sites restricts the run to the named sites; empty means all enabled.
	Sites []string
	// MaxPagesPerSite caps pages per site; 0 uses each site's configured max.
	MaxPagesPerSite int
	// Parallel runs one site per goroutine instead of a fixed sequential order.
	Parallel bool
}

// SiteResult aggregates one site's scrape outcome. Err carries the failure
// message; partial counts before the failure are preserved.
type SiteResult struct {
	Site              string   `json:"site"`
	PagesFetched      int      `json:"pages_fetched"`
	ListingsFound     int      `json:"listings_found"`
	ListingsSaved     int      `json:"listings_saved"`
	DuplicatesSkipped int      `json:"duplicates_skipped"`
	ElementsSkipped   int      `json:"elements_skipped"`
	Logs              []string `json:"logs,omitempty"`
	Err               string   `json:"error,omitempty"`
}

// RunResult aggregates a full run across sites.
type RunResult struct {
	TotalFound        int          `json:"total_found"`
	TotalSaved        int          `json:"total_saved"`
	DuplicatesSkipped int          `json:"duplicates_skipped"`
	SiteBreakdown     []SiteResult `json:"site_breakdown"`
	Logs              []string     `json:"logs"`
	Errors            []string     `json:"errors"`
}

// Runner owns the scrape pipeline state that would otherwise live in
// process-wide globals: the cooldown clock and the in-progress flag. It is
// constructed once at startup and shared by the HTTP handlers and the
// background scheduler, so the cooldown gates both paths.
type Runner struct {
	configCache *sites.ConfigCache
	fetcher     Fetcher
	extractor   *Extractor
	discovery   *FeedDiscovery
	listingRepo database.ListingRepository
	siteRepo    database.SiteRepository
	runRepo     database.RunRepository
	cooldown    time.Duration

	mu        sync.Mutex
	lastRunAt time.Time
	running   bool
}

func NewRunner(configCache *sites.ConfigCache, fetcher Fetcher,
	listingRepo database.ListingRepository, siteRepo database.SiteRepository,
	runRepo database.RunRepository, cooldown time.Duration) *Runner {
	return &Runner{
		configCache: configCache,
		fetcher:     fetcher,
		extractor:   NewExtractor(),
		discovery:   NewFeedDiscovery(),
		listingRepo: listingRepo,
		siteRepo:    siteRepo,
		runRepo:     runRepo,
		cooldown:    cooldown,
	}
}

// RunAll executes a full scrape over the selected sites, honoring the global
// cooldown. Per-site failures never abort the batch; they are collected into
// the result's error list.
func (r *Runner) RunAll(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	configs := r.selectConfigs(opts.Sites)
	if len(configs) == 0 {
		return &RunResult{Logs: []string{"no matching enabled sites"}}, nil
	}

	var siteResults []SiteResult
	if opts.Parallel {
		siteResults = r.runParallel(ctx, configs, opts.MaxPagesPerSite)
	} else {
		siteResults = r.runSequential(ctx, configs, opts.MaxPagesPerSite)
	}

	result := &RunResult{SiteBreakdown: siteResults}
	for _, sr := range siteResults {
		result.TotalFound += sr.ListingsFound
		result.TotalSaved += sr.ListingsSaved
		result.DuplicatesSkipped += sr.DuplicatesSkipped
		result.Logs = append(result.Logs, sr.Logs...)
		if sr.Err != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", sr.Site, sr.Err))
		}
	}

	return result, nil
}

// ScrapeSite runs the pipeline for a single site behind the same gate as
// RunAll, so a background sweep both respects and advances the cooldown shared
// with manual scrapes.
func (r *Runner) ScrapeSite(ctx context.Context, cfg *sites.Config, maxPages int) (SiteResult, error) {
	if err := r.begin(); err != nil {
		return SiteResult{Site: cfg.Name}, err
	}
	defer r.end()

	return r.runSite(ctx, cfg, maxPages), nil
}

// Busy reports whether a run is in flight or the cooldown window is still
// open. The scheduler consults this before enqueueing scrape tasks.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running || time.Since(r.lastRunAt) < r.cooldown
}

// LastRunAt returns the start time of the most recent run.
func (r *Runner) LastRunAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRunAt
}

func (r *Runner) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrScrapeInProgress
	}
	if time.Since(r.lastRunAt) < r.cooldown {
		return ErrCooldownActive
	}

	r.running = true
	r.lastRunAt = time.Now()
	return nil
}

func (r *Runner) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

func (r *Runner) selectConfigs(names []string) []*sites.Config {
	enabled := r.configCache.GetEnabledConfigs()

	var configs []*sites.Config
	if len(names) == 0 {
		for _, cfg := range enabled {
			configs = append(configs, cfg)
		}
	} else {
		for _, name := range names {
			if cfg, ok := enabled[name]; ok {
				configs = append(configs, cfg)
			} else {
				slog.Warn("Requested site not found or disabled, skipping", "site", name)
			}
		}
	}

	// Fixed order keeps sequential runs and run logs deterministic.
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })

	return configs
}

func (r *Runner) runSequential(ctx context.Context, configs []*sites.Config, maxPages int) []SiteResult {
	results := make([]SiteResult, 0, len(configs))
	for _, cfg := range configs {
		results = append(results, r.runSite(ctx, cfg, maxPages))

		if ctx.Err() != nil {
			break
		}
	}
	return results
}

func (r *Runner) runParallel(ctx context.Context, configs []*sites.Config, maxPages int) []SiteResult {
	results := make([]SiteResult, len(configs))

	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg *sites.Config) {
			defer wg.Done()
			results[i] = r.runSite(ctx, cfg, maxPages)
		}(i, cfg)
	}
	wg.Wait()

	return results
}

// runSite scrapes a single site: fetch listing pages, extract candidates,
// dedupe and persist, and record a scrape run row. Delays between page
// fetches stay sequential within the site. Callers hold the run gate.
func (r *Runner) runSite(ctx context.Context, cfg *sites.Config, maxPages int) SiteResult {
	result := SiteResult{Site: cfg.Name}

	runID, err := r.runRepo.StartRun(cfg.Name)
	if err != nil {
		slog.Error("Failed to record scrape run", "site", cfg.Name, "error", err)
	}

	if maxPages <= 0 || maxPages > cfg.Settings.MaxPages {
		maxPages = cfg.Settings.MaxPages
	}

	pageDelay := time.Duration(cfg.Settings.PageDelay) * time.Second

	var candidates []Candidate

	if cfg.FeedURL != "" {
		feedCandidates, err := r.discoverFromFeed(ctx, cfg)
		if err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("%s: feed discovery failed: %v", cfg.Name, err))
		} else {
			candidates = append(candidates, feedCandidates...)
			result.Logs = append(result.Logs, fmt.Sprintf("%s: feed yielded %d candidates", cfg.Name, len(feedCandidates)))
		}
	}

	pages := cfg.ListingPages
	if len(pages) > maxPages {
		pages = pages[:maxPages]
	}

	for i, pageURL := range pages {
		if err := ctx.Err(); err != nil {
			result.Err = err.Error()
			break
		}

		html, err := r.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("%s: fetch failed: %v", cfg.Name, err))
			result.Err = err.Error()
			continue
		}
		result.PagesFetched++

		pageCandidates, stats, err := r.extractor.Run(html, cfg)
		if err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("%s: extraction failed: %v", cfg.Name, err))
			result.Err = err.Error()
			continue
		}

		result.ElementsSkipped += stats.Skipped
		candidates = append(candidates, pageCandidates...)
		result.Logs = append(result.Logs, fmt.Sprintf("%s: page %d yielded %d listings (%d elements skipped)",
			cfg.Name, i+1, len(pageCandidates), stats.Skipped))

		// Empty page means we walked past the end of the listings.
		if len(pageCandidates) == 0 {
			break
		}

		if i < len(pages)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(pageDelay):
			}
		}
	}

	result.ListingsFound = len(candidates)

	saved, duplicates := r.persist(candidates, &result)
	result.ListingsSaved = saved
	result.DuplicatesSkipped = duplicates

	r.finishRun(runID, cfg, result)

	slog.Info("Site scrape finished", "site", cfg.Name,
		"pages", result.PagesFetched, "found", result.ListingsFound,
		"saved", result.ListingsSaved, "duplicates", result.DuplicatesSkipped,
		"skipped_elements", result.ElementsSkipped)

	return result
}

func (r *Runner) discoverFromFeed(ctx context.Context, cfg *sites.Config) ([]Candidate, error) {
	data, err := r.fetcher.FetchRaw(ctx, cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	return r.discovery.Run(data, cfg)
}

// persist applies both dedupe keys: an active (name, source) lookup first,
// then the original_url conflict clause at insert time.
func (r *Runner) persist(candidates []Candidate, result *SiteResult) (saved, duplicates int) {
	for _, candidate := range candidates {
		exists, err := r.listingRepo.ExistsActive(candidate.Name, candidate.Source)
		if err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("%s: dedupe check failed: %v", candidate.Source, err))
			result.Err = err.Error()
			continue
		}
		if exists {
			duplicates++
			continue
		}

		inserted, err := r.listingRepo.InsertListing(database.ListingRecord{
			Name:          candidate.Name,
			Description:   candidate.Description,
			AskingPrice:   candidate.AskingPrice,
			AnnualRevenue: candidate.AnnualRevenue,
			Industry:      candidate.Industry,
			Location:      candidate.Location,
			Source:        candidate.Source,
			Highlights:    candidate.Highlights,
			OriginalURL:   candidate.OriginalURL,
		})
		if err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("%s: insert failed: %v", candidate.Source, err))
			result.Err = err.Error()
			continue
		}

		if inserted {
			saved++
		} else {
			duplicates++
		}
	}

	return saved, duplicates
}

func (r *Runner) finishRun(runID string, cfg *sites.Config, result SiteResult) {
	if runID != "" {
		var err error
		if result.Err != "" {
			err = r.runRepo.FailRun(runID, result.Err)
		} else {
			err = r.runRepo.CompleteRun(runID, result.PagesFetched,
				result.ListingsFound, result.ListingsSaved, result.DuplicatesSkipped)
		}
		if err != nil {
			slog.Error("Failed to finalize scrape run", "site", cfg.Name, "error", err)
		}
	}

	nextScrape := time.Now().UTC().Add(time.Duration(cfg.Settings.RefreshInterval) * time.Second)
	if err := r.siteRepo.UpdateScrapeSchedule(cfg.Name, nextScrape); err != nil {
		slog.Error("Failed to update scrape schedule", "site", cfg.Name, "error", err)
	}
}
