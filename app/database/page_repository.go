package database

import (
	"database/sql"
	"fmt"
)

var _ PageRepository = (*PageRepositoryImpl)(nil)

// PageRepositoryImpl handles database operations for the permanent HTML page
// cache. Cached pages never expire; they are removed only by an explicit
// admin action.
type PageRepositoryImpl struct {
	db *DB
}

func NewPageRepository(db *DB) *PageRepositoryImpl {
	return &PageRepositoryImpl{db: db}
}

func (r *PageRepositoryImpl) GetPage(url string) (*ScrapedPage, error) {
	var page ScrapedPage
	err := r.db.QueryRow(`
		UPDATE scraped_pages
		SET last_used = NOW()
		WHERE url = $1
		RETURNING id, url, html_content, scraped_at, last_used
	`, url).Scan(&page.ID, &page.URL, &page.HTMLContent, &page.ScrapedAt, &page.LastUsed)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}

	return &page, nil
}

func (r *PageRepositoryImpl) SavePage(url, htmlContent string) error {
	_, err := r.db.Exec(`
		INSERT INTO scraped_pages (url, html_content)
		VALUES ($1, $2)
		ON CONFLICT (url) DO UPDATE SET
			html_content = EXCLUDED.html_content,
			scraped_at = NOW(),
			last_used = NOW()
	`, url, htmlContent)

	if err != nil {
		return fmt.Errorf("failed to save cached page: %w", err)
	}

	return nil
}

func (r *PageRepositoryImpl) GetPageCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM scraped_pages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

func (r *PageRepositoryImpl) DeleteAllPages() (int64, error) {
	result, err := r.db.Exec("DELETE FROM scraped_pages")
	if err != nil {
		return 0, fmt.Errorf("failed to delete cached pages: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}
