package database

import (
	"time"
)

// ListingRecord is the insert shape produced by the extraction layer.
// Persisted rows are never updated in place by re-scrapes; verification and
// enrichment are the only writers after insert.
type ListingRecord struct {
	Name          string
	Description   string
	AskingPrice   int64
	AnnualRevenue int64
	Industry      string
	Location      string
	Source        string
	Highlights    []string
	OriginalURL   string
}

// ListingQuery narrows GetListings results. Zero values mean "no constraint".
type ListingQuery struct {
	Source     string
	Industry   string
	MinPrice   int64
	MaxPrice   int64
	ActiveOnly bool
	Limit      int
	Offset     int
}

type ListingStats struct {
	Total   int
	Active  int
	Live    int
	Removed int
	Pending int
}

type SiteRepository interface {
	GetSite(siteName string) (*Site, error)
	GetSiteCount() (int, error)

	UpsertSite(siteName, baseURL string) error
	UpdateScrapeSchedule(siteName string, nextScrapeAt time.Time) error
	SetSiteEnabled(siteName string, enabled bool) error
}

type ListingRepository interface {
	GetListing(id string) (*Listing, error)
	GetListings(query ListingQuery) ([]Listing, error)
	GetListingCount() (int, error)
	GetListingStats() (ListingStats, error)

	// ExistsActive reports whether an active listing with the same name and
	// source is already stored (first dedupe key).
	ExistsActive(name, source string) (bool, error)

	// InsertListing inserts a record, skipping silently on original_url
	// conflict (second dedupe key). Returns true when a row was written.
	InsertListing(record ListingRecord) (bool, error)

	GetListingsForVerification(staleBefore time.Time, limit int) ([]Listing, error)
	UpdateVerificationStatus(id string, status string, isActive bool, verifiedAt time.Time) error

	GetListingsForEnrichment(limit int) ([]Listing, error)
	UpdateEnrichedDescription(id string, description string, status string, errorMsg string) error

	DeleteAllListings() (int64, error)
}

type PageRepository interface {
	// GetPage returns the cached page for a URL, or nil when absent, bumping
	// last_used on hit.
	GetPage(url string) (*ScrapedPage, error)
	SavePage(url, htmlContent string) error
	GetPageCount() (int, error)
	DeleteAllPages() (int64, error)
}

type FavoriteRepository interface {
	GetFavorites(userID string) ([]Favorite, error)
	AddFavorite(listingID, userID, notes string) (*Favorite, error)
	DeleteFavorite(id, userID string) (bool, error)
}

type RunRepository interface {
	StartRun(site string) (string, error)
	CompleteRun(id string, pagesFetched, found, saved, duplicates int) error
	FailRun(id string, errorMsg string) error
	GetRecentRuns(limit int) ([]ScrapeRun, error)
	GetLastRunForSite(site string) (*ScrapeRun, error)
}
