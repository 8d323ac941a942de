package database

import (
	"time"
)

type Site struct {
	ID            string // Database UUID
	Name          string // Configuration site identifier derived from filename
	BaseURL       string
	Enabled       bool
	LastScrapedAt *time.Time
	NextScrapeAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Listing struct {
	ID                 string
	Name               string
	Description        string
	AskingPrice        int64 // whole dollars
	AnnualRevenue      int64
	Industry           string
	Location           string
	Source             string
	Highlights         []string
	OriginalURL        string
	Status             string
	IsActive           bool
	VerificationStatus string // live, removed, pending
	LastVerifiedAt     *time.Time
	EnrichmentStatus   string // pending, success, failed, skipped
	EnrichmentError    string
	EnrichmentAttempts int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ScrapedPage struct {
	ID          string
	URL         string
	HTMLContent string
	ScrapedAt   time.Time
	LastUsed    time.Time
}

type Favorite struct {
	ID        string
	ListingID string
	UserID    string
	Notes     string
	CreatedAt time.Time
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID                string
	Site              string
	Status            RunStatus
	StartedAt         time.Time
	FinishedAt        *time.Time
	PagesFetched      int
	ListingsFound     int
	ListingsSaved     int
	DuplicatesSkipped int
	Error             string
}
