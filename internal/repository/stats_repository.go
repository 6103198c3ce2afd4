package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// StatsRepo answers admin row-count queries. Table names cannot be bound
// as placeholders, so CountRows only accepts names from a fixed set.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

var countableTables = map[string]bool{
	"users":           true,
	"watchlist_items": true,
	"library_entries": true,
	"reviews":         true,
	"friend_requests": true,
	"recommendations": true,
	"lists":           true,
	"list_items":      true,
	"media_cache":     true,
	"invite_codes":    true,
}

func (r *StatsRepo) CountRows(ctx context.Context, table string) (int64, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}
