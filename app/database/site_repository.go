package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SiteRepository = (*SiteRepositoryImpl)(nil)

// SiteRepositoryImpl handles database operations for scrape target sites
type SiteRepositoryImpl struct {
	db *DB
}

func NewSiteRepository(db *DB) *SiteRepositoryImpl {
	return &SiteRepositoryImpl{db: db}
}

func (r *SiteRepositoryImpl) GetSite(siteName string) (*Site, error) {
	var site Site
	err := r.db.QueryRow(`
		SELECT id, name, base_url, enabled, last_scraped_at, next_scrape_at, created_at, updated_at
		FROM sites
		WHERE name = $1
	`, siteName).Scan(
		&site.ID, &site.Name, &site.BaseURL, &site.Enabled,
		&site.LastScrapedAt, &site.NextScrapeAt, &site.CreatedAt, &site.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	return &site, nil
}

func (r *SiteRepositoryImpl) GetSiteCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sites").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get site count: %w", err)
	}
	return count, nil
}

func (r *SiteRepositoryImpl) UpsertSite(siteName, baseURL string) error {
	_, err := r.db.Exec(`
		INSERT INTO sites (name, base_url)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			base_url = EXCLUDED.base_url,
			updated_at = NOW()
	`, siteName, baseURL)

	if err != nil {
		return fmt.Errorf("failed to upsert site: %w", err)
	}

	return nil
}

func (r *SiteRepositoryImpl) UpdateScrapeSchedule(siteName string, nextScrapeAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sites
		SET last_scraped_at = NOW(), next_scrape_at = $2, updated_at = NOW()
		WHERE name = $1
	`, siteName, nextScrapeAt)

	if err != nil {
		return fmt.Errorf("failed to update scrape schedule: %w", err)
	}

	return nil
}

func (r *SiteRepositoryImpl) SetSiteEnabled(siteName string, enabled bool) error {
	_, err := r.db.Exec(`
		UPDATE sites
		SET enabled = $2, updated_at = NOW()
		WHERE name = $1
	`, siteName, enabled)

	if err != nil {
		return fmt.Errorf("failed to set site enabled status: %w", err)
	}

	return nil
}
