package queue

import (
	"context"
	"slices"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/redq/store"
)

// RegistryKey is the store set holding the names of discoverable queues.
const RegistryKey = "queue_names"

// Registry tracks the names of non-hidden queues.
type Registry struct {
	store store.Store
}

// NewRegistry returns the registry kept in s.
func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// Register adds name to the registry.
func (r *Registry) Register(ctx context.Context, name string) error {
	return errx.Wrap(r.store.SetAdd(ctx, RegistryKey, name))
}

// Unregister removes name from the registry.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	return errx.Wrap(r.store.SetRemove(ctx, RegistryKey, name))
}

// Names returns the registered queue names in lexical order.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	names, err := r.store.SetMembers(ctx, RegistryKey)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	slices.Sort(names)
	return names, nil
}

// Contains reports whether name is registered.
func (r *Registry) Contains(ctx context.Context, name string) (bool, error) {
	names, err := r.store.SetMembers(ctx, RegistryKey)
	if err != nil {
		return false, errx.Wrap(err)
	}
	return slices.Contains(names, name), nil
}

// All returns a handle for every registered queue.
func (r *Registry) All(ctx context.Context, cfg Config, opts ...Option) ([]*Queue, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}

	queues := make([]*Queue, 0, len(names))
	for _, name := range names {
		q, err := newQueue(r.store, name, cfg, opts...)
		if err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}

	return queues, nil
}
