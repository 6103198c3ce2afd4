package repository

import (
	"context"
	"database/sql"
	"time"
)

// LibraryEntry mirrors the 'library_entries' table: a book, game or album in
// a user's library. (user_id, media_type, external_id) is unique.
type LibraryEntry struct {
	ID          uint64
	UserID      uint64
	MediaType   string // "book" | "game" | "music"
	ExternalID  string
	Title       string
	CoverURL    string
	Note        string
	Rating      sql.NullInt64
	Status      string
	CompletedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Per-media-type status vocabulary. The bool marks statuses that stamp
// completed_at; any other transition clears it.
var libraryStatuses = map[string]map[string]bool{
	"book":  {"to-read": false, "reading": false, "finished": true},
	"game":  {"to-play": false, "playing": false, "played": true},
	"music": {"to-listen": false, "listening": false, "listened": true},
}

// DefaultLibraryStatus returns the backlog status for a media type, or ""
// for an unknown type.
func DefaultLibraryStatus(mediaType string) string {
	switch mediaType {
	case "book":
		return "to-read"
	case "game":
		return "to-play"
	case "music":
		return "to-listen"
	}
	return ""
}

// ValidLibraryStatus reports whether status is known for the media type and
// whether it is a terminal (completed) status.
func ValidLibraryStatus(mediaType, status string) (ok, terminal bool) {
	m, found := libraryStatuses[mediaType]
	if !found {
		return false, false
	}
	terminal, ok = m[status]
	return ok, terminal
}

type LibraryRepo struct{ DB *sql.DB }

func NewLibraryRepo(db *sql.DB) *LibraryRepo { return &LibraryRepo{DB: db} }

const libraryCols = "id,user_id,media_type,external_id,title,cover_url,note,rating,status,completed_at,created_at,updated_at"

func scanLibraryEntry(s interface{ Scan(...any) error }) (LibraryEntry, error) {
	var e LibraryEntry
	err := s.Scan(&e.ID, &e.UserID, &e.MediaType, &e.ExternalID, &e.Title,
		&e.CoverURL, &e.Note, &e.Rating, &e.Status, &e.CompletedAt,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Add inserts a library entry with the backlog status for its media type.
func (r *LibraryRepo) Add(ctx context.Context, e LibraryEntry) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO library_entries (user_id, media_type, external_id, title, cover_url, note, status) VALUES (?,?,?,?,?,?,?)",
		e.UserID, e.MediaType, e.ExternalID, e.Title, e.CoverURL, e.Note,
		DefaultLibraryStatus(e.MediaType))
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

func (r *LibraryRepo) GetByID(ctx context.Context, id uint64) (LibraryEntry, error) {
	e, err := scanLibraryEntry(r.DB.QueryRowContext(ctx,
		"SELECT "+libraryCols+" FROM library_entries WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// ListByUser returns the user's library, optionally filtered by media type
// and status.
func (r *LibraryRepo) ListByUser(ctx context.Context, userID uint64, mediaType, status string) ([]LibraryEntry, error) {
	q := "SELECT " + libraryCols + " FROM library_entries WHERE user_id=?"
	args := []any{userID}
	if mediaType != "" {
		q += " AND media_type=?"
		args = append(args, mediaType)
	}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LibraryEntry
	for rows.Next() {
		e, err := scanLibraryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetStatus moves an entry to a new status. Terminal statuses stamp
// completed_at, everything else clears it. Returns the updated entry.
func (r *LibraryRepo) SetStatus(ctx context.Context, id, userID uint64, status string, terminal bool) (LibraryEntry, error) {
	var stamp string
	if terminal {
		stamp = "completed_at=NOW()"
	} else {
		stamp = "completed_at=NULL"
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE library_entries SET status=?, "+stamp+", updated_at=NOW() WHERE id=? AND user_id=?",
		status, id, userID)
	if err != nil {
		return LibraryEntry{}, err
	}
	if err := r.checkOwnership(ctx, res, id, userID); err != nil {
		return LibraryEntry{}, err
	}
	return r.GetByID(ctx, id)
}

// Update changes note and rating on an entry owned by userID.
func (r *LibraryRepo) Update(ctx context.Context, id, userID uint64, note string, rating int) error {
	var ratingVal any
	if rating > 0 {
		ratingVal = rating
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE library_entries SET note=?, rating=?, updated_at=NOW() WHERE id=? AND user_id=?",
		note, ratingVal, id, userID)
	if err != nil {
		return err
	}
	return r.checkOwnership(ctx, res, id, userID)
}

// Delete removes an entry owned by userID.
func (r *LibraryRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM library_entries WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return r.checkOwnership(ctx, res, id, userID)
}

func (r *LibraryRepo) checkOwnership(ctx context.Context, res sql.Result, id, userID uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM library_entries WHERE id=? LIMIT 1", id).Scan(&owner)
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
