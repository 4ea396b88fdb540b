package depgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/errors"

	"github.com/alecthomas/zeroinject/internal/facts"
)

func TestRegistryBuildsOnce(t *testing.T) {
	registry := NewRegistry()
	key := ScopeKey{Type: "Logger", Scope: RootScope}
	builds := 0
	build := func() (*Node, error) {
		builds++
		return &Node{Type: facts.T("Logger")}, nil
	}
	first, err := registry.GetOrBuild(key, true, build)
	assert.NoError(t, err)
	second, err := registry.GetOrBuild(key, true, build)
	assert.NoError(t, err)
	assert.True(t, first == second)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 2, registry.Uses(key))
	assert.Equal(t, 0, len(registry.Redundant()))
}

func TestRegistryFailedBuildIsNotCached(t *testing.T) {
	registry := NewRegistry()
	key := ScopeKey{Type: "Logger", Scope: RootScope}
	_, err := registry.GetOrBuild(key, true, func() (*Node, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, ok := registry.Lookup(key)
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Uses(key))
}

func TestRegistryRedundant(t *testing.T) {
	registry := NewRegistry()
	build := func() (*Node, error) { return &Node{}, nil }
	keys := []ScopeKey{
		{Type: "Scoped", Scope: "request"},
		{Type: "Logger", Scope: RootScope},
		{Type: "Store", Qualifier: "primary", Scope: RootScope},
	}
	_, _ = registry.GetOrBuild(keys[0], false, build)
	_, _ = registry.GetOrBuild(keys[1], true, build)
	_, _ = registry.GetOrBuild(keys[2], true, build)
	_, _ = registry.GetOrBuild(keys[2], true, build)

	assert.Equal(t, []ScopeKey{keys[1], keys[2], keys[0]}, registry.Keys())
	assert.Equal(t, []RedundantSingletonWarning{{Key: keys[1]}}, registry.Redundant())
	assert.Equal(t, `ROOT:Store(qualifier="primary")`, keys[2].String())

	registry.Reset()
	assert.Equal(t, []ScopeKey{}, registry.Keys())
}
