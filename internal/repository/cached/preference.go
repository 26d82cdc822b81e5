// Package cached decorates repositories with a read-through cache.
package cached

import (
	"context"
	"log/slog"
	"time"

	"github.com/creamcroissant/xpref/internal/cache"
	"github.com/creamcroissant/xpref/internal/repository"
)

type preferenceRepo struct {
	next   repository.PreferenceRepository
	cache  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewPreferenceRepository caches found records by user id. Upserts write the new
// record through to the cache; read-through fills only add a missing entry, so a
// fill racing an upsert never replaces the newer record. Misses are not cached.
// Cache failures are logged and never fail the call; the wrapped repository stays
// authoritative. Processes that write the same database must share the cache
// (redis); the memory driver is only coherent within a single instance.
func NewPreferenceRepository(next repository.PreferenceRepository, store cache.Store, ttl time.Duration, logger *slog.Logger) repository.PreferenceRepository {
	if store == nil {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &preferenceRepo{
		next:   next,
		cache:  store.Namespace("pref"),
		ttl:    ttl,
		logger: logger,
	}
}

func (r *preferenceRepo) FindByUserID(ctx context.Context, userID string) (*repository.UserPreference, error) {
	var hit repository.UserPreference
	ok, err := r.cache.GetJSON(ctx, userID, &hit)
	if err != nil {
		r.logger.Warn("preference cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return &hit, nil
	}

	pref, err := r.next.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := r.cache.AddJSON(ctx, userID, pref, r.ttl); err != nil {
		r.logger.Warn("preference cache fill failed", "user_id", userID, "error", err)
	}
	return pref, nil
}

func (r *preferenceRepo) Upsert(ctx context.Context, pref *repository.UserPreference) error {
	if err := r.next.Upsert(ctx, pref); err != nil {
		return err
	}
	err := r.cache.SetJSON(ctx, pref.UserID, pref, r.ttl)
	if err == nil {
		return nil
	}
	r.logger.Warn("preference cache write failed", "user_id", pref.UserID, "error", err)
	if err := r.cache.Delete(ctx, pref.UserID); err != nil {
		r.logger.Error("preference cache invalidation failed", "user_id", pref.UserID, "error", err)
	}
	return nil
}
