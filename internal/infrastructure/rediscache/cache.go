package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

const defaultPrefix = "dealhub"

// InvalidateChannel carries composite ids of requests whose cached copies
// must be dropped.
const InvalidateChannel = "invalidate"

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

// Cache implements the Redis-backed collaborators: dealrequest.GroupRegistry,
// dealrequest.PendingCache, dealrequest.Invalidator and
// dealrequest.StatsRecorder.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
}

func NewCache(client redis.UniversalClient, prefix string) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{redis: client, prefix: prefix}
}

func (c *Cache) SetActive(ctx context.Context, groupID, publisherAccountID, dealID uuid.UUID) error {
	return c.redis.HSet(ctx, c.groupKey(groupID), publisherAccountID.String(), dealID.String()).Err()
}

func (c *Cache) ClearActive(ctx context.Context, groupID, publisherAccountID uuid.UUID) error {
	return c.redis.HDel(ctx, c.groupKey(groupID), publisherAccountID.String()).Err()
}

func (c *Cache) Active(ctx context.Context, groupID, publisherAccountID uuid.UUID) (uuid.UUID, bool, error) {
	val, err := c.redis.HGet(ctx, c.groupKey(groupID), publisherAccountID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	dealID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt group entry %s: %w", val, err)
	}
	return dealID, true, nil
}

func (c *Cache) InvalidateRecentPending(ctx context.Context, dealID uuid.UUID) error {
	return c.redis.Del(ctx, c.key("recent_pending", dealID.String())).Err()
}

// Invalidate drops the cached request and announces the id to other caches.
func (c *Cache) Invalidate(ctx context.Context, compositeID string) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key("request", compositeID))
		pipe.Publish(ctx, c.key(InvalidateChannel), compositeID)
		return nil
	})
	return err
}

// applyDeltaScript moves one request between counters unless the sort key
// (ARGV[1]) is already in the applied set. Returns 1 when applied.
var applyDeltaScript = redis.NewScript(`
if ARGV[1] ~= "" and redis.call("SADD", KEYS[2], ARGV[1]) == 0 then
  return 0
end
if ARGV[2] ~= "" then
  redis.call("HINCRBY", KEYS[1], ARGV[2], -1)
end
redis.call("HINCRBY", KEYS[1], ARGV[3], 1)
return 1
`)

// ApplyDelta applies delta atomically; a delta whose sort key was applied
// before is ignored.
func (c *Cache) ApplyDelta(ctx context.Context, delta dealrequest.StatusCountDelta) error {
	dealID := delta.DealID.String()
	from := string(delta.FromStatus)
	if delta.FromStatus == dealrequest.StatusUnknown {
		from = ""
	}
	keys := []string{c.key("status_counts", dealID), c.key("status_counts_applied", dealID)}
	err := applyDeltaScript.Run(ctx, c.redis, keys, delta.SortKey, from, string(delta.ToStatus)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to apply status count delta: %w", err)
	}
	return nil
}

func (c *Cache) StoreRecent(ctx context.Context, stats dealrequest.RecentStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, c.key("recent_stats", stats.AccountID.String()), data, 0).Err()
}

// Counts returns the status counters of a deal.
func (c *Cache) Counts(ctx context.Context, dealID uuid.UUID) (map[dealrequest.Status]int64, error) {
	raw, err := c.redis.HGetAll(ctx, c.key("status_counts", dealID.String())).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[dealrequest.Status]int64, len(raw))
	for status, v := range raw {
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return nil, fmt.Errorf("corrupt counter %s=%s: %w", status, v, err)
		}
		out[dealrequest.Status(status)] = n
	}
	return out, nil
}

// Recent returns the stored statistics of an account; nil when absent.
func (c *Cache) Recent(ctx context.Context, accountID uuid.UUID) (*dealrequest.RecentStats, error) {
	data, err := c.redis.Get(ctx, c.key("recent_stats", accountID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stats dealrequest.RecentStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Cache) groupKey(groupID uuid.UUID) string {
	return c.key("group_active", groupID.String())
}

func (c *Cache) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}
