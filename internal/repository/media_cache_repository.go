package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// MediaCacheEntry mirrors the 'media_cache' table: a provider payload cached
// by (media_type, external_id) with an expiry.
type MediaCacheEntry struct {
	MediaType  string
	ExternalID string
	Payload    json.RawMessage
	FetchedAt  time.Time
	ExpiresAt  time.Time
}

type MediaCacheRepo struct{ DB *sql.DB }

func NewMediaCacheRepo(db *sql.DB) *MediaCacheRepo { return &MediaCacheRepo{DB: db} }

// Get returns a non-expired entry, or ErrNotFound on miss or expiry.
func (r *MediaCacheRepo) Get(ctx context.Context, mediaType, externalID string) (MediaCacheEntry, error) {
	var e MediaCacheEntry
	err := r.DB.QueryRowContext(ctx,
		"SELECT media_type, external_id, payload, fetched_at, expires_at FROM media_cache WHERE media_type=? AND external_id=? LIMIT 1",
		mediaType, externalID).
		Scan(&e.MediaType, &e.ExternalID, &e.Payload, &e.FetchedAt, &e.ExpiresAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if time.Now().UTC().After(e.ExpiresAt) {
		return e, ErrNotFound
	}
	return e, nil
}

// Put upserts an entry with the given time-to-live.
func (r *MediaCacheRepo) Put(ctx context.Context, mediaType, externalID string, payload json.RawMessage, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO media_cache (media_type, external_id, payload, fetched_at, expires_at)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE payload=VALUES(payload), fetched_at=VALUES(fetched_at), expires_at=VALUES(expires_at)`,
		mediaType, externalID, []byte(payload), now, now.Add(ttl))
	return err
}

// PurgeExpired deletes stale rows and returns how many were removed.
func (r *MediaCacheRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM media_cache WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
