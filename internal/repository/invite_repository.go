package repository

import (
	"context"
	"database/sql"
	"time"
)

// InviteCode mirrors the 'invite_codes' table. Codes are minted by admins
// and redeemed at most once during registration.
type InviteCode struct {
	Code      string
	CreatedBy uint64
	UsedBy    sql.NullInt64
	UsedAt    sql.NullTime
	CreatedAt time.Time
}

type InviteRepo struct{ DB *sql.DB }

func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{DB: db} }

// Mint inserts a new invite code owned by the given admin.
func (r *InviteRepo) Mint(ctx context.Context, code string, createdBy uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO invite_codes (code, created_by) VALUES (?,?)", code, createdBy)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Check reports whether the code exists and is still unused. It does not
// consume the code.
func (r *InviteRepo) Check(ctx context.Context, code string) (bool, error) {
	var usedBy sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT used_by FROM invite_codes WHERE code=? LIMIT 1", code).Scan(&usedBy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !usedBy.Valid, nil
}

// Redeem consumes an unused code for the given user. The single UPDATE with
// a used_by IS NULL guard makes redemption atomic: two racing registrations
// cannot both claim the same code.
func (r *InviteRepo) Redeem(ctx context.Context, code string, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE invite_codes SET used_by=?, used_at=NOW() WHERE code=? AND used_by IS NULL",
		userID, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCreator returns codes minted by an admin, newest first.
func (r *InviteRepo) ListByCreator(ctx context.Context, createdBy uint64) ([]InviteCode, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT code, created_by, used_by, used_at, created_at FROM invite_codes WHERE created_by=? ORDER BY created_at DESC",
		createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []InviteCode
	for rows.Next() {
		var ic InviteCode
		if err := rows.Scan(&ic.Code, &ic.CreatedBy, &ic.UsedBy, &ic.UsedAt, &ic.CreatedAt); err != nil {
			return nil, err
		}
		codes = append(codes, ic)
	}
	return codes, rows.Err()
}
