package repository

import (
	"context"
	"database/sql"
	"time"
)

// Review mirrors the 'reviews' table: one review per (user, media_type,
// external_id), rating 1-10 plus free text. Reviews are publicly readable.
type Review struct {
	ID         uint64
	UserID     uint64
	MediaType  string
	ExternalID string
	Title      string
	Rating     int
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// AuthorName is joined from users for listing endpoints.
	AuthorName string
}

type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewCols = "r.id,r.user_id,r.media_type,r.external_id,r.title,r.rating,r.body,r.created_at,r.updated_at,u.display_name"

func scanReview(s interface{ Scan(...any) error }) (Review, error) {
	var rv Review
	err := s.Scan(&rv.ID, &rv.UserID, &rv.MediaType, &rv.ExternalID, &rv.Title,
		&rv.Rating, &rv.Body, &rv.CreatedAt, &rv.UpdatedAt, &rv.AuthorName)
	return rv, err
}

// Create inserts a review. A second review of the same media by the same
// user returns ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rv Review) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, media_type, external_id, title, rating, body) VALUES (?,?,?,?,?,?)",
		rv.UserID, rv.MediaType, rv.ExternalID, rv.Title, rv.Rating, rv.Body)
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

func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (Review, error) {
	rv, err := scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM reviews r JOIN users u ON u.id=r.user_id WHERE r.id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return rv, ErrNotFound
	}
	return rv, err
}

// Update rewrites rating and body of the caller's own review.
func (r *ReviewRepo) Update(ctx context.Context, id, userID uint64, rating int, body string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET rating=?, body=?, updated_at=NOW() WHERE id=? AND user_id=?",
		rating, body, id, userID)
	if err != nil {
		return err
	}
	return r.checkOwnership(ctx, res, id, userID)
}

// Delete removes the caller's own review.
func (r *ReviewRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM reviews WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return r.checkOwnership(ctx, res, id, userID)
}

// ListByMedia returns all reviews of one media item, newest first.
func (r *ReviewRepo) ListByMedia(ctx context.Context, mediaType, externalID string) ([]Review, error) {
	return r.list(ctx,
		"SELECT "+reviewCols+" FROM reviews r JOIN users u ON u.id=r.user_id WHERE r.media_type=? AND r.external_id=? ORDER BY r.created_at DESC",
		mediaType, externalID)
}

// ListByUser returns all reviews written by one user, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]Review, error) {
	return r.list(ctx,
		"SELECT "+reviewCols+" FROM reviews r JOIN users u ON u.id=r.user_id WHERE r.user_id=? ORDER BY r.created_at DESC",
		userID)
}

// MostReviewed returns the media items with the most reviews, used by the
// cache warmer to decide what to pre-fetch.
func (r *ReviewRepo) MostReviewed(ctx context.Context, limit int) ([]struct {
	MediaType  string
	ExternalID string
	Count      int
}, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT media_type, external_id, COUNT(*) AS n FROM reviews GROUP BY media_type, external_id ORDER BY n DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []struct {
		MediaType  string
		ExternalID string
		Count      int
	}
	for rows.Next() {
		var m struct {
			MediaType  string
			ExternalID string
			Count      int
		}
		if err := rows.Scan(&m.MediaType, &m.ExternalID, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) list(ctx context.Context, q string, args ...any) ([]Review, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepo) checkOwnership(ctx context.Context, res sql.Result, id, userID uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM reviews WHERE id=? LIMIT 1", id).Scan(&owner)
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
