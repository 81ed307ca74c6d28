// Package testutil provides helpers shared by redq tests.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/redq/rediswr"
)

// Namespace is the key prefix used by stores created with NewStore.
const Namespace = "test"

// NewRedis starts an in-memory Redis server and returns a client connected to it.
// Both are shut down when the test ends.
func NewRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// NewStore returns a namespaced store backed by an in-memory Redis server.
func NewStore(t *testing.T, opts ...rediswr.StoreOption) (*rediswr.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, client := NewRedis(t)
	return rediswr.NewStore(client, Namespace, opts...), mr
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current time of the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
