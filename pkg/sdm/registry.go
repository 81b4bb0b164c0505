// SPDX-License-Identifier: MPL-2.0

package sdm

import (
	"context"
	"sync"
)

type (
	// Factory builds a handle for a spec.
	Factory func(ctx context.Context, spec EnvSpec) (Env, error)

	// Registry hands out one Env per distinct spec identity for the lifetime of a
	// process. Construction errors are returned to the caller and not cached, so a
	// later call may retry.
	//
	// Callers asking for the same identity wait for a single construction;
	// different identities are built concurrently.
	Registry struct {
		factory Factory

		mu      sync.Mutex
		entries map[string]*registryEntry
	}

	registryEntry struct {
		mu  sync.Mutex
		env Env
	}
)

// NewRegistry creates a registry backed by factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the handle for spec, building it on first use.
func (r *Registry) Get(ctx context.Context, spec EnvSpec) (Env, error) {
	e := r.entry(IdentityKey(spec))

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.env != nil {
		return e.env, nil
	}

	env, err := r.factory(ctx, spec)
	if err != nil {
		return nil, err
	}
	e.env = env
	return env, nil
}

// Len returns the number of cached handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.env != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (r *Registry) entry(key string) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		e = &registryEntry{}
		r.entries[key] = e
	}
	return e
}
