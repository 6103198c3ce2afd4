package repository

import (
	"context"
	"database/sql"
	"time"
)

// Recommendation lifecycle statuses. Only the recipient moves a
// recommendation off PENDING; repeated responses overwrite each other.
const (
	RecommendationPending = "PENDING"
	RecommendationHit     = "HIT"
	RecommendationMiss    = "MISS"
)

// ValidRecommendationStatus reports whether s is a valid recipient response.
func ValidRecommendationStatus(s string) bool {
	return s == RecommendationHit || s == RecommendationMiss
}

// Recommendation mirrors the 'recommendations' table: a directed media tip
// from one friend to another.
type Recommendation struct {
	ID          uint64
	SenderID    uint64
	RecipientID uint64
	MediaType   string
	ExternalID  string
	Title       string
	Message     string
	Status      string
	CreatedAt   time.Time
	RespondedAt sql.NullTime

	// PeerName is the sender's name in the inbox and the recipient's name
	// in the outbox.
	PeerName string
}

type RecommendationRepo struct{ DB *sql.DB }

func NewRecommendationRepo(db *sql.DB) *RecommendationRepo { return &RecommendationRepo{DB: db} }

// Create inserts a pending recommendation and returns its ID.
func (r *RecommendationRepo) Create(ctx context.Context, rec Recommendation) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO recommendations (sender_id, recipient_id, media_type, external_id, title, message, status) VALUES (?,?,?,?,?,?,?)",
		rec.SenderID, rec.RecipientID, rec.MediaType, rec.ExternalID, rec.Title, rec.Message, RecommendationPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *RecommendationRepo) GetByID(ctx context.Context, id uint64) (Recommendation, error) {
	var rec Recommendation
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, sender_id, recipient_id, media_type, external_id, title, message, status, created_at, responded_at
		 FROM recommendations WHERE id=? LIMIT 1`, id).
		Scan(&rec.ID, &rec.SenderID, &rec.RecipientID, &rec.MediaType, &rec.ExternalID,
			&rec.Title, &rec.Message, &rec.Status, &rec.CreatedAt, &rec.RespondedAt)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	return rec, err
}

// Respond records the recipient's verdict. Only the recipient may respond;
// a later response overwrites an earlier one (last writer wins).
func (r *RecommendationRepo) Respond(ctx context.Context, id, recipientID uint64, status string) (Recommendation, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE recommendations SET status=?, responded_at=NOW() WHERE id=? AND recipient_id=?",
		status, id, recipientID)
	if err != nil {
		return Recommendation{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var recip uint64
		err := r.DB.QueryRowContext(ctx,
			"SELECT recipient_id FROM recommendations WHERE id=? LIMIT 1", id).Scan(&recip)
		if err == sql.ErrNoRows {
			return Recommendation{}, ErrNotFound
		}
		if err != nil {
			return Recommendation{}, err
		}
		if recip != recipientID {
			return Recommendation{}, ErrForbidden
		}
		// No-op update (same status twice) falls through to the re-read.
	}
	return r.GetByID(ctx, id)
}

// Inbox returns recommendations addressed to the user, optionally filtered
// by status, newest first.
func (r *RecommendationRepo) Inbox(ctx context.Context, userID uint64, status string) ([]Recommendation, error) {
	return r.list(ctx, "recipient_id", "sender_id", userID, status)
}

// Outbox returns recommendations the user has sent.
func (r *RecommendationRepo) Outbox(ctx context.Context, userID uint64, status string) ([]Recommendation, error) {
	return r.list(ctx, "sender_id", "recipient_id", userID, status)
}

func (r *RecommendationRepo) list(ctx context.Context, ownCol, peerCol string, userID uint64, status string) ([]Recommendation, error) {
	q := `SELECT rc.id, rc.sender_id, rc.recipient_id, rc.media_type, rc.external_id,
	             rc.title, rc.message, rc.status, rc.created_at, rc.responded_at, u.display_name
	      FROM recommendations rc JOIN users u ON u.id=rc.` + peerCol + `
	      WHERE rc.` + ownCol + `=?`
	args := []any{userID}
	if status != "" {
		q += " AND rc.status=?"
		args = append(args, status)
	}
	q += " ORDER BY rc.created_at DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(&rec.ID, &rec.SenderID, &rec.RecipientID, &rec.MediaType,
			&rec.ExternalID, &rec.Title, &rec.Message, &rec.Status,
			&rec.CreatedAt, &rec.RespondedAt, &rec.PeerName); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
