package rediswr

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/redq/store"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "redq"

const (
	scanBatch    = 500
	memberSep    = "|"
	minExpiryTTL = time.Second
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store on top of a Redis client. Every key is prefixed
// with "<namespace>:".
type Store struct {
	client    redis.UniversalClient
	namespace string
	prefix    string
	now       func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithNow replaces the clock used for expiring windows and schedules.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore wraps client in namespace. An empty namespace falls back to DefaultNamespace.
func NewStore(client redis.UniversalClient, namespace string, opts ...StoreOption) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	s := &Store{
		client:    client,
		namespace: namespace,
		prefix:    namespace + ":",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.UniversalClient { return s.client }

// Namespace returns the key prefix without the trailing separator.
func (s *Store) Namespace() string { return s.namespace }

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) ListPush(ctx context.Context, key, value string) error {
	return errx.Wrap(s.client.RPush(ctx, s.key(key), value).Err())
}

func (s *Store) ListPopBlocking(ctx context.Context, key string, timeout time.Duration) (string, bool, error) {
	res, err := s.client.BLPop(ctx, timeout, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errx.Wrap(err)
	}
	if len(res) < 2 {
		return "", false, nil
	}

	return res[1], true, nil
}

func (s *Store) ListLength(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, s.key(key)).Result()
	return n, errx.Wrap(err)
}

func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.client.LRange(ctx, s.key(key), start, stop).Result()
	return vals, errx.Wrap(err)
}

// Delete removes keys one by one so that it also works across cluster slots.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		// Also drops the window deadline when k is an expiring window.
		if err := s.client.Del(ctx, s.windowKeys(k)...).Err(); err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{"key": k}))
		}
	}
	return nil
}

func (s *Store) SetAdd(ctx context.Context, key, member string) error {
	return errx.Wrap(s.client.SAdd(ctx, s.key(key), member).Err())
}

func (s *Store) SetRemove(ctx context.Context, key, member string) error {
	return errx.Wrap(s.client.SRem(ctx, s.key(key), member).Err())
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.key(key)).Result()
	return members, errx.Wrap(err)
}

func (s *Store) CounterIncrement(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, s.key(key)).Result()
	return n, errx.Wrap(err)
}

func (s *Store) CounterIncrementBy(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := s.client.IncrBy(ctx, s.key(key), delta).Result()
	return n, errx.Wrap(err)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errx.Wrap(err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return errx.Wrap(s.client.Set(ctx, s.key(key), value, 0).Err())
}

// Every window member is scored by the time it was added. The window as a
// whole lives until the deadline held in a sibling key; each add moves that
// deadline out, so the window expires ttl after its newest member.
//
// KEYS[1] window, KEYS[2] deadline. ARGV[1] now ms.
const windowPruneSrc = `
local deadline = redis.call('GET', KEYS[2])
if (not deadline) or tonumber(deadline) <= tonumber(ARGV[1]) then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 0
end
return 1
`

// KEYS[1] window, KEYS[2] deadline. ARGV: now ms, member, ttl ms, deadline ms.
const windowAddSrc = `
local deadline = redis.call('GET', KEYS[2])
if (not deadline) or tonumber(deadline) <= tonumber(ARGV[1]) then
	redis.call('DEL', KEYS[1], KEYS[2])
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('SET', KEYS[2], ARGV[4], 'PX', ARGV[3])
return 1
`

//nolint:gochecknoglobals // compiled once, loaded lazily per server
var (
	windowPrune = redis.NewScript(windowPruneSrc)
	windowAdd   = redis.NewScript(windowAddSrc)
)

// windowKeys returns the window key and its deadline key. The deadline key
// hash-tags the window key so both land in one cluster slot.
func (s *Store) windowKeys(key string) []string {
	k := s.key(key)
	return []string{k, "{" + k + "}:deadline"}
}

// ExpiringAdd adds value to the window at key and pushes the expiry of the
// whole window to ttl from now.
func (s *Store) ExpiringAdd(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < minExpiryTTL {
		ttl = minExpiryTTL
	}

	now := s.now()
	err := windowAdd.Run(ctx, s.client, s.windowKeys(key),
		now.UnixMilli(),
		uuid.NewString()+memberSep+value,
		ttl.Milliseconds(),
		now.Add(ttl).UnixMilli(),
	).Err()

	return errx.Wrap(err)
}

func (s *Store) ExpiringCount(ctx context.Context, key string) (int64, error) {
	alive, err := s.pruneExpired(ctx, key)
	if err != nil || !alive {
		return 0, err
	}

	n, err := s.client.ZCard(ctx, s.key(key)).Result()
	return n, errx.Wrap(err)
}

func (s *Store) ExpiringMembers(ctx context.Context, key string) ([]string, error) {
	alive, err := s.pruneExpired(ctx, key)
	if err != nil || !alive {
		return nil, err
	}

	raw, err := s.client.ZRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	values := make([]string, 0, len(raw))
	for _, m := range raw {
		_, v, found := strings.Cut(m, memberSep)
		if !found {
			v = m
		}
		values = append(values, v)
	}

	return values, nil
}

// pruneExpired drops the window at key once its deadline has passed and
// reports whether it is still alive.
func (s *Store) pruneExpired(ctx context.Context, key string) (bool, error) {
	alive, err := windowPrune.Run(ctx, s.client, s.windowKeys(key), s.now().UnixMilli()).Int()
	if err != nil {
		return false, errx.Wrap(err)
	}
	return alive == 1, nil
}

// KeysMatching scans every master node for keys matching pattern within the namespace.
func (s *Store) KeysMatching(ctx context.Context, pattern string) ([]string, error) {
	var (
		mu   sync.Mutex
		keys []string
	)

	scan := func(ctx context.Context, c redis.UniversalClient) error {
		iter := c.Scan(ctx, 0, s.key(pattern), scanBatch).Iterator()
		for iter.Next(ctx) {
			mu.Lock()
			keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
			mu.Unlock()
		}
		return iter.Err()
	}

	var err error
	if cluster, ok := s.client.(*redis.ClusterClient); ok {
		err = cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return scan(ctx, node)
		})
	} else {
		err = scan(ctx, s.client)
	}
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"pattern": pattern}))
	}

	return dedupe(keys), nil
}

func (s *Store) ScheduleAdd(ctx context.Context, key, value string, runAt time.Time) error {
	return errx.Wrap(s.client.ZAdd(ctx, s.key(key), redis.Z{
		Score:  float64(runAt.UnixMilli()),
		Member: value,
	}).Err())
}

func (s *Store) ScheduleDue(ctx context.Context, key string, now time.Time, limit int64) ([]string, error) {
	vals, err := s.client.ZRangeByScore(ctx, s.key(key), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
	return vals, errx.Wrap(err)
}

func (s *Store) ScheduleRemove(ctx context.Context, key, value string) (bool, error) {
	n, err := s.client.ZRem(ctx, s.key(key), value).Result()
	if err != nil {
		return false, errx.Wrap(err)
	}
	return n > 0, nil
}

func (s *Store) ScheduleLength(ctx context.Context, key string) (int64, error) {
	n, err := s.client.ZCard(ctx, s.key(key)).Result()
	return n, errx.Wrap(err)
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
