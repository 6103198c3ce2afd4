package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/metadata"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// runner holds everything the subcommands share.
type runner struct {
	cfg    config.Config
	db     *sql.DB
	logger *log.Logger

	users   *repository.UserRepo
	reviews *repository.ReviewRepo
	cache   *repository.MediaCacheRepo
	meta    *metadata.Service
}

func newRunner(cfg config.Config, db *sql.DB, logger *log.Logger) *runner {
	cache := repository.NewMediaCacheRepo(db)
	return &runner{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		users:   repository.NewUserRepo(db),
		reviews: repository.NewReviewRepo(db),
		cache:   cache,
		meta:    metadata.NewService(cfg, cache),
	}
}

// WarmCache fetches provider details for the most reviewed media so
// that the first user request after a deploy hits the cache.
func (r *runner) WarmCache(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	top, err := r.reviews.MostReviewed(ctx, limit)
	if err != nil {
		return fmt.Errorf("load most reviewed: %w", err)
	}
	r.logger.Infof("warming %d media items", len(top))

	var warmed, failed int
	for _, m := range top {
		_, cached, err := r.meta.Details(ctx, m.MediaType, m.ExternalID)
		if err != nil {
			r.logger.Warnf("%s/%s: %v", m.MediaType, m.ExternalID, err)
			failed++
			continue
		}
		if cached {
			r.logger.Debugf("%s/%s already cached", m.MediaType, m.ExternalID)
		}
		warmed++
	}
	r.logger.Infof("done: %d warmed, %d failed", warmed, failed)
	if failed > 0 && warmed == 0 {
		return fmt.Errorf("all %d lookups failed", failed)
	}
	return nil
}

// SetSuperAdmin grants SUPER_ADMIN to the user with the given email.
// This is the only way to create the first super admin.
func (r *runner) SetSuperAdmin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if err := r.users.SetRoleByEmail(ctx, email, repository.RoleSuperAdmin); err != nil {
		return fmt.Errorf("set role for %s: %w", email, err)
	}
	r.logger.Infof("%s is now SUPER_ADMIN", email)
	return nil
}

// strayWatchlistRows returns IDs from a scoped listing that belong to a
// different user than the one queried.
func strayWatchlistRows(ownerID uint64, items []repository.WatchlistItem) []uint64 {
	var stray []uint64
	for _, it := range items {
		if it.UserID != ownerID {
			stray = append(stray, it.ID)
		}
	}
	return stray
}

func strayLibraryRows(ownerID uint64, entries []repository.LibraryEntry) []uint64 {
	var stray []uint64
	for _, e := range entries {
		if e.UserID != ownerID {
			stray = append(stray, e.ID)
		}
	}
	return stray
}

// VerifyAccess runs read-only checks confirming that per-user data
// cannot leak across accounts. Scoped listings go through the same
// repository queries the handlers use, so a broken WHERE clause shows
// up here before it shows up in a report.
func (r *runner) VerifyAccess(ctx context.Context, cmd *cli.Command) error {
	sample := int(cmd.Int("sample"))
	users, err := r.users.List(ctx, sample, 0)
	if err != nil {
		return fmt.Errorf("sample users: %w", err)
	}
	if len(users) < 2 {
		r.logger.Warn("need at least two users for cross-user checks")
		return nil
	}

	watchlist := repository.NewWatchlistRepo(r.db)
	library := repository.NewLibraryRepo(r.db)

	var failures int
	for _, u := range users {
		items, err := watchlist.ListByUser(ctx, u.ID, nil, "")
		if err != nil {
			return fmt.Errorf("list watchlist for user %d: %w", u.ID, err)
		}
		if stray := strayWatchlistRows(u.ID, items); len(stray) > 0 {
			r.logger.Errorf("watchlist: user %d listing returned foreign rows %v", u.ID, stray)
			failures++
		}
		entries, err := library.ListByUser(ctx, u.ID, "", "")
		if err != nil {
			return fmt.Errorf("list library for user %d: %w", u.ID, err)
		}
		if stray := strayLibraryRows(u.ID, entries); len(stray) > 0 {
			r.logger.Errorf("library: user %d listing returned foreign rows %v", u.ID, stray)
			failures++
		}
	}

	// Live refresh tokens must belong to existing users; a stray row
	// would keep a deleted account's session alive.
	var strayTokens int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refresh_tokens rt
		 LEFT JOIN users u ON u.id=rt.user_id
		 WHERE rt.revoked_at IS NULL AND u.id IS NULL`).Scan(&strayTokens)
	if err != nil {
		return fmt.Errorf("check refresh tokens: %w", err)
	}
	if strayTokens != 0 {
		r.logger.Errorf("refresh tokens: %d live tokens without a user", strayTokens)
		failures++
	}

	// Recommendations must only be resolvable by their recipient; a row
	// with a response but no recipient match would mean the guard failed.
	var orphaned int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendations rc
		 LEFT JOIN users u ON u.id=rc.recipient_id
		 WHERE rc.status<>'PENDING' AND u.id IS NULL`).Scan(&orphaned)
	if err != nil {
		return fmt.Errorf("check recommendations: %w", err)
	}
	if orphaned != 0 {
		r.logger.Errorf("recommendations: %d resolved rows without a recipient", orphaned)
		failures++
	}

	// Private lists must not be visible to non-members.
	lists := repository.NewListRepo(r.db)
	outsider := users[1]
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id FROM lists l
		 WHERE l.is_public=false AND l.owner_id<>?
		 AND NOT EXISTS (SELECT 1 FROM list_members lm WHERE lm.list_id=l.id AND lm.user_id=?)
		 LIMIT 5`, outsider.ID, outsider.ID)
	if err != nil {
		return fmt.Errorf("check lists: %w", err)
	}
	var privateIDs []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		privateIDs = append(privateIDs, id)
	}
	rows.Close()
	for _, id := range privateIDs {
		role, err := lists.RoleFor(ctx, id, outsider.ID)
		if err != nil {
			return fmt.Errorf("check list %d: %w", id, err)
		}
		if role != "" {
			r.logger.Errorf("lists: user %d got role %q on private list %d", outsider.ID, role, id)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d access checks failed", failures)
	}
	r.logger.Infof("all access checks passed (%d users sampled)", len(users))
	return nil
}

// PurgeCache drops expired media cache rows.
func (r *runner) PurgeCache(ctx context.Context, cmd *cli.Command) error {
	n, err := r.cache.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	r.logger.Infof("purged %d expired cache rows", n)
	return nil
}
