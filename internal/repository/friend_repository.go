package repository

import (
	"context"
	"database/sql"
	"time"
)

// Friend request lifecycle statuses.
const (
	FriendPending  = "PENDING"
	FriendAccepted = "ACCEPTED"
	FriendDeclined = "DECLINED"
)

// FriendRequest mirrors the 'friend_requests' table: a directed invitation
// between two users. Friendship is the undirected view of ACCEPTED rows.
type FriendRequest struct {
	ID          uint64
	RequesterID uint64
	ReceiverID  uint64
	Status      string
	CreatedAt   time.Time
	RespondedAt sql.NullTime

	// PeerEmail / PeerName are joined for listing endpoints.
	PeerEmail string
	PeerName  string
}

// Friend is one row of a user's friends listing.
type Friend struct {
	UserID      uint64
	Email       string
	DisplayName string
	Since       time.Time
}

type FriendRepo struct{ DB *sql.DB }

func NewFriendRepo(db *sql.DB) *FriendRepo { return &FriendRepo{DB: db} }

// Send creates a pending request from requester to receiver. Sending to
// yourself, sending twice, or sending to an existing friend is ErrConflict.
func (r *FriendRepo) Send(ctx context.Context, requesterID, receiverID uint64) (uint64, error) {
	if requesterID == receiverID {
		return 0, ErrConflict
	}
	// An open or accepted request in either direction blocks a new one.
	var exists int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM friend_requests
		 WHERE status IN (?,?)
		   AND ((requester_id=? AND receiver_id=?) OR (requester_id=? AND receiver_id=?))
		 LIMIT 1`,
		FriendPending, FriendAccepted,
		requesterID, receiverID, receiverID, requesterID).Scan(&exists)
	if err == nil {
		return 0, ErrConflict
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO friend_requests (requester_id, receiver_id, status) VALUES (?,?,?)",
		requesterID, receiverID, FriendPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Respond lets the receiver accept or decline a pending request.
func (r *FriendRepo) Respond(ctx context.Context, id, receiverID uint64, accept bool) error {
	status := FriendDeclined
	if accept {
		status = FriendAccepted
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE friend_requests SET status=?, responded_at=NOW() WHERE id=? AND receiver_id=? AND status=?",
		status, id, receiverID, FriendPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Zero rows: distinguish missing row, wrong receiver, or already resolved.
	var recv uint64
	var cur string
	err = r.DB.QueryRowContext(ctx,
		"SELECT receiver_id, status FROM friend_requests WHERE id=? LIMIT 1", id).Scan(&recv, &cur)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if recv != receiverID {
		return ErrForbidden
	}
	return ErrConflict // already accepted or declined
}

// ListIncoming returns pending requests addressed to the user.
func (r *FriendRepo) ListIncoming(ctx context.Context, userID uint64) ([]FriendRequest, error) {
	return r.listRequests(ctx,
		`SELECT fr.id, fr.requester_id, fr.receiver_id, fr.status, fr.created_at, fr.responded_at,
		        u.email, u.display_name
		 FROM friend_requests fr JOIN users u ON u.id=fr.requester_id
		 WHERE fr.receiver_id=? AND fr.status=? ORDER BY fr.created_at DESC`,
		userID, FriendPending)
}

// ListOutgoing returns requests the user has sent, any status.
func (r *FriendRepo) ListOutgoing(ctx context.Context, userID uint64) ([]FriendRequest, error) {
	return r.listRequests(ctx,
		`SELECT fr.id, fr.requester_id, fr.receiver_id, fr.status, fr.created_at, fr.responded_at,
		        u.email, u.display_name
		 FROM friend_requests fr JOIN users u ON u.id=fr.receiver_id
		 WHERE fr.requester_id=? ORDER BY fr.created_at DESC`,
		userID)
}

// ListFriends returns accepted friendships in either direction.
func (r *FriendRepo) ListFriends(ctx context.Context, userID uint64) ([]Friend, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.email, u.display_name, fr.responded_at
		 FROM friend_requests fr
		 JOIN users u ON u.id = IF(fr.requester_id=?, fr.receiver_id, fr.requester_id)
		 WHERE fr.status=? AND (fr.requester_id=? OR fr.receiver_id=?)
		 ORDER BY fr.responded_at DESC`,
		userID, FriendAccepted, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		var f Friend
		var since sql.NullTime
		if err := rows.Scan(&f.UserID, &f.Email, &f.DisplayName, &since); err != nil {
			return nil, err
		}
		if since.Valid {
			f.Since = since.Time
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// AreFriends reports whether the two users share an accepted request.
func (r *FriendRepo) AreFriends(ctx context.Context, a, b uint64) (bool, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM friend_requests
		 WHERE status=? AND ((requester_id=? AND receiver_id=?) OR (requester_id=? AND receiver_id=?))
		 LIMIT 1`,
		FriendAccepted, a, b, b, a).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the accepted friendship between the user and peer.
func (r *FriendRepo) Remove(ctx context.Context, userID, peerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM friend_requests
		 WHERE status=? AND ((requester_id=? AND receiver_id=?) OR (requester_id=? AND receiver_id=?))`,
		FriendAccepted, userID, peerID, peerID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FriendRepo) listRequests(ctx context.Context, q string, args ...any) ([]FriendRequest, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []FriendRequest
	for rows.Next() {
		var fr FriendRequest
		if err := rows.Scan(&fr.ID, &fr.RequesterID, &fr.ReceiverID, &fr.Status,
			&fr.CreatedAt, &fr.RespondedAt, &fr.PeerEmail, &fr.PeerName); err != nil {
			return nil, err
		}
		reqs = append(reqs, fr)
	}
	return reqs, rows.Err()
}
