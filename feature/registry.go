// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the validated feature set. Lookups are lock-cheap reads of
// an immutable snapshot; a bundle reload builds a fresh snapshot and swaps
// it in atomically, so in-flight compilations keep the manifests they
// started with.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Manifest
	revision uint64
}

// NewRegistry creates an empty feature registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Manifest)}
}

// Register adds a single manifest to the registry. The manifest must pass
// structural validation and its ID must not collide with a registered one.
// Bundle loading goes through [Loader.LoadBundle] instead, which validates
// the whole set together; Register exists for hosts that assemble manifests
// programmatically.
func (r *Registry) Register(m *Manifest) error {
	if issues := m.checkStructure(); len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[m.ID]; exists {
		return fmt.Errorf("%w: duplicate feature id %q", ErrValidation, m.ID)
	}
	byID := make(map[string]*Manifest, len(r.byID)+1)
	for id, reg := range r.byID {
		byID[id] = reg
	}
	byID[m.ID] = m
	r.byID = byID
	r.revision++
	return nil
}

// Lookup returns the manifest registered under the given feature ID.
func (r *Registry) Lookup(id string) (*Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// Len returns the number of registered features.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Revision returns a counter that increments on every successful bundle
// swap. Hosts use it to invalidate caches keyed by feature identity.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// IDs returns all registered feature IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListByCategory returns the manifests in the given category, ordered by
// feature ID.
func (r *Registry) ListByCategory(category string) []*Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Manifest
	for _, m := range r.byID {
		if m.Category == category {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListByDomain returns the manifests in the given domain, ordered by
// feature ID.
func (r *Registry) ListByDomain(domain Domain) []*Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Manifest
	for _, m := range r.byID {
		if m.Domain == domain {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// replaceAll swaps the whole feature set. Called by the loader only after
// the incoming bundle validated cleanly.
func (r *Registry) replaceAll(manifests map[string]*Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = manifests
	r.revision++
}
