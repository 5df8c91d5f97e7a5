package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// setIfCurrent writes a surcharge only while the service generation still
// matches the one the caller read before loading the schedule.
//
// KEYS[1] generation counter, KEYS[2] surcharge hash
// ARGV[1] expected generation, ARGV[2] field, ARGV[3] surcharge, ARGV[4] ttl in ms
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
if tonumber(ARGV[4]) > 0 then
	redis.call('PEXPIRE', KEYS[2], ARGV[4])
end
return 1
`)

// ScheduleCache implements usecase.ScheduleCache. Each service owns one hash
// mapping an elapsed-day count to the resolved surcharge, plus a generation
// counter bumped on every invalidation. A surcharge computed from a schedule
// read under an older generation is never stored.
type ScheduleCache struct {
	client redis.Cmdable
	prefix string
}

// NewScheduleCache creates a new ScheduleCache.
func NewScheduleCache(client redis.Cmdable) *ScheduleCache {
	return &ScheduleCache{
		client: client,
		prefix: "schedule:",
	}
}

// GetSurcharge returns the cached surcharge, reporting found=false on a miss.
func (c *ScheduleCache) GetSurcharge(ctx context.Context, serviceID string, elapsedDays int) (decimal.Decimal, bool, error) {
	raw, err := c.client.HGet(ctx, c.key(serviceID), strconv.Itoa(elapsedDays)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("cached surcharge %q for %s/%d: %w", raw, serviceID, elapsedDays, err)
	}

	return pct, true, nil
}

// Generation returns the current generation of a service's cached schedule.
func (c *ScheduleCache) Generation(ctx context.Context, serviceID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(serviceID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetSurcharge stores a surcharge and pushes the service hash expiry out to
// ttl. It reports stored=false when the service was invalidated after
// generation was read.
func (c *ScheduleCache) SetSurcharge(
	ctx context.Context,
	serviceID string,
	generation int64,
	elapsedDays int,
	pct decimal.Decimal,
	ttl time.Duration,
) (bool, error) {
	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{c.generationKey(serviceID), c.key(serviceID)},
		strconv.FormatInt(generation, 10),
		strconv.Itoa(elapsedDays),
		pct.String(),
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}

	return stored == 1, nil
}

// InvalidateService drops every cached surcharge of a service and bumps its
// generation so in-flight lookups cannot repopulate it.
func (c *ScheduleCache) InvalidateService(ctx context.Context, serviceID string) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.generationKey(serviceID))
	pipe.Del(ctx, c.key(serviceID))
	_, err := pipe.Exec(ctx)

	return err
}

func (c *ScheduleCache) key(serviceID string) string {
	return c.prefix + serviceID
}

func (c *ScheduleCache) generationKey(serviceID string) string {
	return c.prefix + "gen:" + serviceID
}
