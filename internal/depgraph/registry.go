package depgraph

import (
	"cmp"
	"slices"
)

// RootScope is the implicit scope of plain singletons.
const RootScope = "ROOT"

// ScopeKey identifies a shared resolved subtree.
type ScopeKey struct {
	Type      string `json:"type"`
	Qualifier string `json:"qualifier,omitempty"`
	Scope     string `json:"scope"`
}

func (k ScopeKey) String() string {
	return k.Scope + ":" + describe(k.Type, k.Qualifier)
}

func compareScopeKeys(a, b ScopeKey) int {
	return cmp.Or(cmp.Compare(a.Scope, b.Scope), cmp.Compare(a.Type, b.Type), cmp.Compare(a.Qualifier, b.Qualifier))
}

type registryEntry struct {
	node      *Node
	singleton bool
	uses      int
}

// Registry caches singleton and scoped subtrees for the duration of a pass.
//
// It guarantees at most one construction per [ScopeKey] per pass.
type Registry struct {
	entries map[ScopeKey]*registryEntry
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{entries: map[ScopeKey]*registryEntry{}}
}

// GetOrBuild returns the cached node for key, or calls build exactly once and caches its result.
//
// Every call counts as a use of the key. If build fails nothing is cached.
func (r *Registry) GetOrBuild(key ScopeKey, singleton bool, build func() (*Node, error)) (*Node, error) {
	if entry, ok := r.entries[key]; ok {
		entry.uses++
		entry.singleton = entry.singleton || singleton
		return entry.node, nil
	}
	node, err := build()
	if err != nil {
		return nil, err
	}
	r.entries[key] = &registryEntry{node: node, singleton: singleton, uses: 1}
	return node, nil
}

// Lookup returns the cached node for key, if any, without counting a use.
func (r *Registry) Lookup(key ScopeKey) (*Node, bool) {
	entry, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return entry.node, true
}

// Uses returns the number of times key was requested.
func (r *Registry) Uses(key ScopeKey) int {
	if entry, ok := r.entries[key]; ok {
		return entry.uses
	}
	return 0
}

// Keys returns all cached keys in a deterministic order.
func (r *Registry) Keys() []ScopeKey {
	keys := make([]ScopeKey, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareScopeKeys)
	return keys
}

// Redundant returns the singleton keys that were used exactly once.
func (r *Registry) Redundant() []RedundantSingletonWarning {
	var out []RedundantSingletonWarning
	for _, key := range r.Keys() {
		entry := r.entries[key]
		if entry.singleton && entry.uses == 1 {
			out = append(out, RedundantSingletonWarning{Key: key})
		}
	}
	return out
}

// Reset clears all cached subtrees.
func (r *Registry) Reset() {
	clear(r.entries)
}
