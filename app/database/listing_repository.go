package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var _ ListingRepository = (*ListingRepositoryImpl)(nil)

// ListingRepositoryImpl handles database operations for scraped listings
type ListingRepositoryImpl struct {
	db *DB
}

func NewListingRepository(db *DB) *ListingRepositoryImpl {
	return &ListingRepositoryImpl{db: db}
}

const listingColumns = `id, name, COALESCE(description, ''), asking_price, annual_revenue,
	COALESCE(industry, ''), COALESCE(location, ''), source, COALESCE(highlights, '{}'),
	original_url, status, is_active, verification_status, last_verified_at,
	enrichment_status, COALESCE(enrichment_error, ''), enrichment_attempts,
	created_at, updated_at`

func scanListing(row interface{ Scan(...interface{}) error }) (*Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.Name, &l.Description, &l.AskingPrice, &l.AnnualRevenue,
		&l.Industry, &l.Location, &l.Source, pq.Array(&l.Highlights),
		&l.OriginalURL, &l.Status, &l.IsActive, &l.VerificationStatus, &l.LastVerifiedAt,
		&l.EnrichmentStatus, &l.EnrichmentError, &l.EnrichmentAttempts,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepositoryImpl) GetListing(id string) (*Listing, error) {
	listing, err := scanListing(r.db.QueryRow(
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

func (r *ListingRepositoryImpl) GetListings(query ListingQuery) ([]Listing, error) {
	sqlQuery := `SELECT ` + listingColumns + ` FROM listings WHERE 1=1`
	args := []interface{}{}

	if query.Source != "" {
		args = append(args, query.Source)
		sqlQuery += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if query.Industry != "" {
		args = append(args, query.Industry)
		sqlQuery += fmt.Sprintf(" AND industry = $%d", len(args))
	}
	if query.MinPrice > 0 {
		args = append(args, query.MinPrice)
		sqlQuery += fmt.Sprintf(" AND asking_price >= $%d", len(args))
	}
	if query.MaxPrice > 0 {
		args = append(args, query.MaxPrice)
		sqlQuery += fmt.Sprintf(" AND asking_price <= $%d", len(args))
	}
	if query.ActiveOnly {
		sqlQuery += " AND is_active = true"
	}

	sqlQuery += " ORDER BY created_at DESC"

	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	sqlQuery += fmt.Sprintf(" LIMIT $%d", len(args))

	if query.Offset > 0 {
		args = append(args, query.Offset)
		sqlQuery += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]Listing, error) {
	var listings []Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}
	return listings, nil
}

func (r *ListingRepositoryImpl) GetListingCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get listing count: %w", err)
	}
	return count, nil
}

func (r *ListingRepositoryImpl) GetListingStats() (ListingStats, error) {
	var stats ListingStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_active = true) AS active,
			COUNT(*) FILTER (WHERE verification_status = 'live') AS live,
			COUNT(*) FILTER (WHERE verification_status = 'removed') AS removed,
			COUNT(*) FILTER (WHERE verification_status = 'pending') AS pending
		FROM listings
	`).Scan(&stats.Total, &stats.Active, &stats.Live, &stats.Removed, &stats.Pending)

	if err != nil {
		return ListingStats{}, fmt.Errorf("failed to get listing stats: %w", err)
	}

	return stats, nil
}

func (r *ListingRepositoryImpl) ExistsActive(name, source string) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM listings
		WHERE name = $1 AND source = $2 AND status = 'active'
		LIMIT 1
	`, name, source).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing listing: %w", err)
	}

	return true, nil
}

func (r *ListingRepositoryImpl) InsertListing(record ListingRecord) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO listings (
			name, description, asking_price, annual_revenue, industry,
			location, source, highlights, original_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (original_url) DO NOTHING
	`, record.Name, record.Description, record.AskingPrice, record.AnnualRevenue,
		record.Industry, record.Location, record.Source,
		pq.Array(record.Highlights), record.OriginalURL)

	if err != nil {
		return false, fmt.Errorf("failed to insert listing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *ListingRepositoryImpl) GetListingsForVerification(staleBefore time.Time, limit int) ([]Listing, error) {
	rows, err := r.db.Query(`
		SELECT `+listingColumns+`
		FROM listings
		WHERE is_active = true
		  AND (last_verified_at IS NULL OR last_verified_at < $1)
		ORDER BY last_verified_at NULLS FIRST
		LIMIT $2
	`, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings for verification: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *ListingRepositoryImpl) UpdateVerificationStatus(id string, status string, isActive bool, verifiedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE listings
		SET verification_status = $2, is_active = $3, last_verified_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id, status, isActive, verifiedAt)

	if err != nil {
		return fmt.Errorf("failed to update verification status: %w", err)
	}

	return nil
}

func (r *ListingRepositoryImpl) GetListingsForEnrichment(limit int) ([]Listing, error) {
	rows, err := r.db.Query(`
		SELECT `+listingColumns+`
		FROM listings
		WHERE is_active = true
		  AND enrichment_status = 'pending'
		  AND enrichment_attempts < 3
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings for enrichment: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *ListingRepositoryImpl) UpdateEnrichedDescription(id string, description string, status string, errorMsg string) error {
	var err error
	if description != "" {
		_, err = r.db.Exec(`
			UPDATE listings
			SET description = $2, enrichment_status = $3, enrichment_error = $4,
			    enrichment_attempts = enrichment_attempts + 1, updated_at = NOW()
			WHERE id = $1
		`, id, description, status, errorMsg)
	} else {
		_, err = r.db.Exec(`
			UPDATE listings
			SET enrichment_status = $2, enrichment_error = $3,
			    enrichment_attempts = enrichment_attempts + 1, updated_at = NOW()
			WHERE id = $1
		`, id, status, errorMsg)
	}

	if err != nil {
		return fmt.Errorf("failed to update enriched description: %w", err)
	}

	return nil
}

func (r *ListingRepositoryImpl) DeleteAllListings() (int64, error) {
	result, err := r.db.Exec("DELETE FROM listings")
	if err != nil {
		return 0, fmt.Errorf("failed to delete listings: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}
