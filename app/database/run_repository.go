package database

import (
	"database/sql"
	"fmt"
)

var _ RunRepository = (*RunRepositoryImpl)(nil)

// RunRepositoryImpl handles database operations for scrape run records
type RunRepositoryImpl struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

func (r *RunRepositoryImpl) StartRun(site string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO scrape_runs (site, status)
		VALUES ($1, 'running')
		RETURNING id
	`, site).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

func (r *RunRepositoryImpl) CompleteRun(id string, pagesFetched, found, saved, duplicates int) error {
	_, err := r.db.Exec(`
		UPDATE scrape_runs
		SET status = 'completed', finished_at = NOW(),
		    pages_fetched = $2, listings_found = $3, listings_saved = $4, duplicates_skipped = $5
		WHERE id = $1
	`, id, pagesFetched, found, saved, duplicates)

	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	return nil
}

func (r *RunRepositoryImpl) FailRun(id string, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE scrape_runs
		SET status = 'failed', finished_at = NOW(), error = $2
		WHERE id = $1
	`, id, errorMsg)

	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}

	return nil
}

func (r *RunRepositoryImpl) GetRecentRuns(limit int) ([]ScrapeRun, error) {
	rows, err := r.db.Query(`
		SELECT id, site, status, started_at, finished_at,
		       pages_fetched, listings_found, listings_saved, duplicates_skipped, COALESCE(error, '')
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []ScrapeRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

func (r *RunRepositoryImpl) GetLastRunForSite(site string) (*ScrapeRun, error) {
	run, err := scanRun(r.db.QueryRow(`
		SELECT id, site, status, started_at, finished_at,
		       pages_fetched, listings_found, listings_saved, duplicates_skipped, COALESCE(error, '')
		FROM scrape_runs
		WHERE site = $1
		ORDER BY started_at DESC
		LIMIT 1
	`, site))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run for site: %w", err)
	}

	return run, nil
}

func scanRun(row interface{ Scan(...interface{}) error }) (*ScrapeRun, error) {
	var run ScrapeRun
	err := row.Scan(
		&run.ID, &run.Site, &run.Status, &run.StartedAt, &run.FinishedAt,
		&run.PagesFetched, &run.ListingsFound, &run.ListingsSaved,
		&run.DuplicatesSkipped, &run.Error,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
