package ledger

import (
	"context"

	"apexpay/internal/utils"
)

// Cache is the read cache the reporter fills and the processor invalidates.
// Entries are keyed by a per-user generation counter; bumping the counter
// orphans every entry written under the previous one.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any) error         { return nil }
func (nopCache) Delete(context.Context, ...string) error        { return nil }
func (nopCache) Counter(context.Context, string) (int64, error) { return 0, nil }
func (nopCache) Incr(context.Context, string) (int64, error)    { return 0, nil }

// invalidate moves the user to a new cache generation, so a fill racing with
// this write lands under a key no reader will look up again. The previous
// generation's entries are dropped as well. Failures are only logged;
// entries expire on their own.
func invalidate(ctx context.Context, cache Cache, userID uint) {
	entry := logger(ctx).WithField("user_id", userID)
	gen, err := cache.Incr(ctx, utils.GenerationKey(userID))
	if err != nil {
		entry.WithError(err).Warn("Cache invalidation failed")
		return
	}
	prev := gen - 1
	if err := cache.Delete(ctx, utils.WalletCacheKey(userID, prev), utils.HistoryCacheKey(userID, prev)); err != nil {
		entry.WithError(err).Warn("Stale cache entries not deleted")
	}
}
