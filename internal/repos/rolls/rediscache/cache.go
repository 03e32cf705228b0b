// Package rediscache wraps a roll log with a read-through Redis cache for the
// recent-rolls query. Cache failures are logged and never surface to callers.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	"github.com/redis/go-redis/v9"
)

const (
	// bumped on every append; cached lists are keyed by the generation they
	// were read under, so a list read before an append is never served after it
	keyGeneration  = "rolls:recent:gen"
	keyRecentRolls = "rolls:recent:%d:%d"

	DefaultTTL = time.Minute
)

var _ rolls.Rolls = (*cachedRolls)(nil)

type cachedRolls struct {
	next rolls.Rolls
	rdb  redis.UniversalClient
	ttl  time.Duration
}

// New wraps next. A non-positive ttl uses DefaultTTL so keys of past
// generations always expire.
func New(next rolls.Rolls, rdb redis.UniversalClient, ttl time.Duration) *cachedRolls {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &cachedRolls{next: next, rdb: rdb, ttl: ttl}
}

func (c *cachedRolls) Append(ctx context.Context, roll rolls.Roll) error {
	err := c.next.Append(ctx, roll)
	if err != nil {
		return err
	}

	ierr := c.rdb.Incr(ctx, keyGeneration).Err()
	if ierr != nil {
		slog.Warn("invalidate recent rolls cache", "error", ierr)
	}

	return nil
}

func (c *cachedRolls) Recent(ctx context.Context, n int) ([]rolls.Roll, error) {
	gen, err := c.rdb.Get(ctx, keyGeneration).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("read recent rolls generation", "error", err)

		return c.next.Recent(ctx, n)
	}

	key := fmt.Sprintf(keyRecentRolls, n, gen)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []rolls.Roll

		uerr := json.Unmarshal(data, &out)
		if uerr == nil {
			return out, nil
		}

		slog.Warn("decode cached rolls", "key", key, "error", uerr)
	case !errors.Is(err, redis.Nil):
		slog.Warn("read recent rolls cache", "key", key, "error", err)
	}

	out, err := c.next.Recent(ctx, n)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(out)
	if err != nil {
		slog.Warn("encode rolls for cache", "error", err)

		return out, nil
	}

	serr := c.rdb.Set(ctx, key, data, c.ttl).Err()
	if serr != nil {
		slog.Warn("write recent rolls cache", "key", key, "error", serr)
	}

	return out, nil
}
