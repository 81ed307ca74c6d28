// Package store declares the key/value primitives queues are built on.
//
// Implementations must be safe for concurrent use. Keys are logical names; any
// namespacing is applied by the implementation.
package store

import (
	"context"
	"time"
)

// Store is the storage backend of queues and their statistics.
type Store interface {
	// ListPush appends value to the tail of the list at key.
	ListPush(ctx context.Context, key, value string) error

	// ListPopBlocking removes and returns the head of the list at key, waiting up to
	// timeout for an element. ok is false when the timeout elapsed with nothing popped.
	// A zero timeout waits until an element arrives or ctx is done.
	ListPopBlocking(ctx context.Context, key string, timeout time.Duration) (value string, ok bool, err error)

	// ListLength returns the number of elements of the list at key.
	ListLength(ctx context.Context, key string) (int64, error)

	// ListRange returns elements start..stop (inclusive, negative indexes count from the tail).
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// SetAdd adds member to the set at key.
	SetAdd(ctx context.Context, key, member string) error

	// SetRemove removes member from the set at key.
	SetRemove(ctx context.Context, key, member string) error

	// SetMembers returns all members of the set at key.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// CounterIncrement atomically increments the integer at key and returns the new value.
	CounterIncrement(ctx context.Context, key string) (int64, error)

	// CounterIncrementBy atomically adds delta to the integer at key.
	CounterIncrementBy(ctx context.Context, key string, delta int64) (int64, error)

	// Get returns the string at key; ok is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value at key.
	Set(ctx context.Context, key, value string) error

	// ExpiringAdd records value in the window at key. The whole window,
	// earlier values included, expires ttl after the newest add.
	ExpiringAdd(ctx context.Context, key, value string, ttl time.Duration) error

	// ExpiringCount returns the number of unexpired values in the window at key.
	ExpiringCount(ctx context.Context, key string) (int64, error)

	// ExpiringMembers returns the unexpired values in the window at key.
	ExpiringMembers(ctx context.Context, key string) ([]string, error)

	// KeysMatching returns the logical keys matching a glob pattern.
	KeysMatching(ctx context.Context, pattern string) ([]string, error)

	// ScheduleAdd schedules value to become due at runAt.
	ScheduleAdd(ctx context.Context, key, value string, runAt time.Time) error

	// ScheduleDue returns up to limit values due at or before now.
	ScheduleDue(ctx context.Context, key string, now time.Time, limit int64) ([]string, error)

	// ScheduleRemove removes value; it reports whether this call removed it.
	ScheduleRemove(ctx context.Context, key, value string) (bool, error)

	// ScheduleLength returns the number of scheduled values at key.
	ScheduleLength(ctx context.Context, key string) (int64, error)
}
