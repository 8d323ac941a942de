package database

import (
	"fmt"
)

var _ FavoriteRepository = (*FavoriteRepositoryImpl)(nil)

// FavoriteRepositoryImpl handles database operations for user favorites
type FavoriteRepositoryImpl struct {
	db *DB
}

func NewFavoriteRepository(db *DB) *FavoriteRepositoryImpl {
	return &FavoriteRepositoryImpl{db: db}
}

func (r *FavoriteRepositoryImpl) GetFavorites(userID string) ([]Favorite, error) {
	rows, err := r.db.Query(`
		SELECT id, listing_id, user_id, COALESCE(notes, ''), created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		var f Favorite
		err := rows.Scan(&f.ID, &f.ListingID, &f.UserID, &f.Notes, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		favorites = append(favorites, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	return favorites, nil
}

func (r *FavoriteRepositoryImpl) AddFavorite(listingID, userID, notes string) (*Favorite, error) {
	var f Favorite
	err := r.db.QueryRow(`
		INSERT INTO favorites (listing_id, user_id, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (listing_id, user_id) DO UPDATE SET notes = EXCLUDED.notes
		RETURNING id, listing_id, user_id, COALESCE(notes, ''), created_at
	`, listingID, userID, notes).Scan(&f.ID, &f.ListingID, &f.UserID, &f.Notes, &f.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	return &f, nil
}

func (r *FavoriteRepositoryImpl) DeleteFavorite(id, userID string) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM favorites
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}
