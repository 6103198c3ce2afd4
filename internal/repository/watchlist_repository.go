package repository

import (
	"context"
	"database/sql"
	"time"
)

// WatchlistItem mirrors the 'watchlist_items' table: one movie or TV show on
// a user's watchlist. (user_id, media_type, external_id) is unique.
type WatchlistItem struct {
	ID         uint64
	UserID     uint64
	MediaType  string // "movie" | "tv"
	ExternalID string // provider id, e.g. TMDB id
	Title      string
	PosterURL  string
	Note       string
	Rating     sql.NullInt64 // personal 1-10 rating, optional
	Watched    bool
	WatchedAt  sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type WatchlistRepo struct{ DB *sql.DB }

func NewWatchlistRepo(db *sql.DB) *WatchlistRepo { return &WatchlistRepo{DB: db} }

const watchlistCols = "id,user_id,media_type,external_id,title,poster_url,note,rating,watched,watched_at,created_at,updated_at"

func scanWatchlistItem(s interface{ Scan(...any) error }) (WatchlistItem, error) {
	var it WatchlistItem
	err := s.Scan(&it.ID, &it.UserID, &it.MediaType, &it.ExternalID, &it.Title,
		&it.PosterURL, &it.Note, &it.Rating, &it.Watched, &it.WatchedAt,
		&it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// Add inserts a watchlist item. A duplicate (user, media, external id)
// returns ErrConflict.
func (r *WatchlistRepo) Add(ctx context.Context, it WatchlistItem) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO watchlist_items (user_id, media_type, external_id, title, poster_url, note) VALUES (?,?,?,?,?,?)",
		it.UserID, it.MediaType, it.ExternalID, it.Title, it.PosterURL, it.Note)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one item regardless of owner; ownership checks happen in
// the mutating queries below.
func (r *WatchlistRepo) GetByID(ctx context.Context, id uint64) (WatchlistItem, error) {
	it, err := scanWatchlistItem(r.DB.QueryRowContext(ctx,
		"SELECT "+watchlistCols+" FROM watchlist_items WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	return it, err
}

// ListByUser returns the user's watchlist, newest first. watched filters by
// watched state when non-nil; mediaType filters when non-empty.
func (r *WatchlistRepo) ListByUser(ctx context.Context, userID uint64, watched *bool, mediaType string) ([]WatchlistItem, error) {
	q := "SELECT " + watchlistCols + " FROM watchlist_items WHERE user_id=?"
	args := []any{userID}
	if watched != nil {
		q += " AND watched=?"
		args = append(args, *watched)
	}
	if mediaType != "" {
		q += " AND media_type=?"
		args = append(args, mediaType)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WatchlistItem
	for rows.Next() {
		it, err := scanWatchlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update changes note and rating on an item owned by userID. A rating of 0
// clears the stored rating.
func (r *WatchlistRepo) Update(ctx context.Context, id, userID uint64, note string, rating int) error {
	var ratingVal any
	if rating > 0 {
		ratingVal = rating
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE watchlist_items SET note=?, rating=?, updated_at=NOW() WHERE id=? AND user_id=?",
		note, ratingVal, id, userID)
	if err != nil {
		return err
	}
	return r.checkOwnership(ctx, res, id, userID)
}

// watchedTransition computes the next state for a watched toggle. Turning
// the flag on stamps watched_at with now; turning it off clears the stamp.
func watchedTransition(current bool, now time.Time) (bool, sql.NullTime) {
	if current {
		return false, sql.NullTime{}
	}
	return true, sql.NullTime{Time: now, Valid: true}
}

// ToggleWatched flips the watched flag and returns the updated item. The
// new state is computed in Go so the update writes explicit values instead
// of depending on SET evaluation order.
func (r *WatchlistRepo) ToggleWatched(ctx context.Context, id, userID uint64) (WatchlistItem, error) {
	it, err := r.GetByID(ctx, id)
	if err != nil {
		return WatchlistItem{}, err
	}
	if it.UserID != userID {
		return WatchlistItem{}, ErrForbidden
	}
	watched, watchedAt := watchedTransition(it.Watched, time.Now().UTC())
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE watchlist_items SET watched=?, watched_at=?, updated_at=NOW() WHERE id=? AND user_id=?",
		watched, watchedAt, id, userID); err != nil {
		return WatchlistItem{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes an item owned by userID.
func (r *WatchlistRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM watchlist_items WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return r.checkOwnership(ctx, res, id, userID)
}

// checkOwnership turns a zero-row mutation into ErrNotFound when the row
// does not exist, ErrForbidden when it belongs to another user, and nil for
// a no-op update by the owner (MySQL counts only changed rows).
func (r *WatchlistRepo) checkOwnership(ctx context.Context, res sql.Result, id, userID uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM watchlist_items WHERE id=? LIMIT 1", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}
