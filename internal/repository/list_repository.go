package repository

import (
	"context"
	"database/sql"
	"time"
)

// Shared-list member roles. The owner is implicit via lists.owner_id and
// outranks both.
const (
	ListRoleViewer = "VIEWER"
	ListRoleEditor = "EDITOR"
)

// List mirrors the 'lists' table: a shareable media list.
type List struct {
	ID          uint64
	OwnerID     uint64
	Name        string
	Description string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	ItemCount int // joined count for listing endpoints
}

// ListMember mirrors the 'list_members' table.
type ListMember struct {
	ListID  uint64
	UserID  uint64
	Role    string
	AddedAt time.Time

	Email       string
	DisplayName string
}

// ListItem mirrors the 'list_items' table.
type ListItem struct {
	ID         uint64
	ListID     uint64
	MediaType  string
	ExternalID string
	Title      string
	AddedBy    uint64
	CreatedAt  time.Time
}

type ListRepo struct{ DB *sql.DB }

func NewListRepo(db *sql.DB) *ListRepo { return &ListRepo{DB: db} }

// Create inserts a list owned by ownerID.
func (r *ListRepo) Create(ctx context.Context, ownerID uint64, name, description string, isPublic bool) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO lists (owner_id, name, description, is_public) VALUES (?,?,?,?)",
		ownerID, name, description, isPublic)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *ListRepo) GetByID(ctx context.Context, id uint64) (List, error) {
	var l List
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, owner_id, name, description, is_public, created_at, updated_at FROM lists WHERE id=? LIMIT 1",
		id).Scan(&l.ID, &l.OwnerID, &l.Name, &l.Description, &l.IsPublic, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

// ListForUser returns lists the user owns or is a member of, with item
// counts, newest first.
func (r *ListRepo) ListForUser(ctx context.Context, userID uint64) ([]List, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT l.id, l.owner_id, l.name, l.description, l.is_public, l.created_at, l.updated_at,
		        COUNT(li.id)
		 FROM lists l
		 LEFT JOIN list_members lm ON lm.list_id=l.id AND lm.user_id=?
		 LEFT JOIN list_items li ON li.list_id=l.id
		 WHERE l.owner_id=? OR lm.user_id IS NOT NULL
		 GROUP BY l.id, l.owner_id, l.name, l.description, l.is_public, l.created_at, l.updated_at
		 ORDER BY l.created_at DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Description, &l.IsPublic,
			&l.CreatedAt, &l.UpdatedAt, &l.ItemCount); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// RoleFor resolves what userID may do with the list: "OWNER", the stored
// member role, ListRoleViewer for public lists, or "" for no access.
func (r *ListRepo) RoleFor(ctx context.Context, listID, userID uint64) (string, error) {
	l, err := r.GetByID(ctx, listID)
	if err != nil {
		return "", err
	}
	if l.OwnerID == userID {
		return "OWNER", nil
	}
	var role string
	err = r.DB.QueryRowContext(ctx,
		"SELECT role FROM list_members WHERE list_id=? AND user_id=? LIMIT 1",
		listID, userID).Scan(&role)
	if err == nil {
		return role, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}
	if l.IsPublic {
		return ListRoleViewer, nil
	}
	return "", nil
}

// Update rewrites list metadata; owner only.
func (r *ListRepo) Update(ctx context.Context, id, ownerID uint64, name, description string, isPublic bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lists SET name=?, description=?, is_public=?, updated_at=NOW() WHERE id=? AND owner_id=?",
		name, description, isPublic, id, ownerID)
	if err != nil {
		return err
	}
	return r.checkOwner(ctx, res, id, ownerID)
}

// Delete removes the list with its members and items in one transaction;
// owner only.
func (r *ListRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return ErrForbidden
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM list_items WHERE list_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM list_members WHERE list_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AddMember adds or re-roles a member; owner only. Adding the owner is a
// conflict.
func (r *ListRepo) AddMember(ctx context.Context, listID, ownerID, memberID uint64, role string) error {
	l, err := r.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return ErrForbidden
	}
	if memberID == ownerID {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO list_members (list_id, user_id, role) VALUES (?,?,?) ON DUPLICATE KEY UPDATE role=VALUES(role)",
		listID, memberID, role)
	return err
}

// RemoveMember drops a member; owner only.
func (r *ListRepo) RemoveMember(ctx context.Context, listID, ownerID, memberID uint64) error {
	l, err := r.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return ErrForbidden
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM list_members WHERE list_id=? AND user_id=?", listID, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Members returns the member roster with user details.
func (r *ListRepo) Members(ctx context.Context, listID uint64) ([]ListMember, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT lm.list_id, lm.user_id, lm.role, lm.added_at, u.email, u.display_name
		 FROM list_members lm JOIN users u ON u.id=lm.user_id
		 WHERE lm.list_id=? ORDER BY lm.added_at`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []ListMember
	for rows.Next() {
		var m ListMember
		if err := rows.Scan(&m.ListID, &m.UserID, &m.Role, &m.AddedAt, &m.Email, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddItem appends a media item; caller must already hold an editor role.
// Duplicate (list, media) is ErrConflict.
func (r *ListRepo) AddItem(ctx context.Context, it ListItem) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO list_items (list_id, media_type, external_id, title, added_by) VALUES (?,?,?,?,?)",
		it.ListID, it.MediaType, it.ExternalID, it.Title, it.AddedBy)
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

// RemoveItem deletes an item from the list.
func (r *ListRepo) RemoveItem(ctx context.Context, listID, itemID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM list_items WHERE id=? AND list_id=?", itemID, listID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Items returns the list contents, oldest first.
func (r *ListRepo) Items(ctx context.Context, listID uint64) ([]ListItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, list_id, media_type, external_id, title, added_by, created_at FROM list_items WHERE list_id=? ORDER BY created_at",
		listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.MediaType, &it.ExternalID,
			&it.Title, &it.AddedBy, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *ListRepo) checkOwner(ctx context.Context, res sql.Result, id, ownerID uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM lists WHERE id=? LIMIT 1", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	return nil
}
