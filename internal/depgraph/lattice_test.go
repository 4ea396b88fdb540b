package depgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/alecthomas/zeroinject/internal/facts"
)

func TestLattice(t *testing.T) {
	impl := &facts.ClassDecl{Name: "PostgresStore", Kind: facts.Class, Parent: "BaseStore", Supers: []string{"Store"}}
	universe := &facts.Universe{Classes: []*facts.ClassDecl{
		iface("Closer"),
		iface("Store", "Closer"),
		{Name: "BaseStore", Kind: facts.Abstract, Supers: []string{"Closer"}},
		impl,
		// Malformed input must not loop forever.
		iface("Loop", "Loop"),
	}}
	lattice := NewLattice(universe)
	assert.Equal(t, []string{"BaseStore", "Store", "Closer"}, lattice.Supertypes("PostgresStore"))
	assert.Equal(t, []string{}, lattice.Supertypes("Loop"))
	assert.Equal(t, []string{"BaseStore"}, lattice.Ancestors("PostgresStore"))
	assert.Equal(t, []string{}, lattice.Ancestors("Unknown"))

	tests := []struct {
		sub, super string
		expected   bool
	}{
		{"PostgresStore", "PostgresStore", true},
		{"PostgresStore", "Store", true},
		{"PostgresStore", "Closer", true},
		{"PostgresStore", "BaseStore", true},
		{"Store", "PostgresStore", false},
		{"BaseStore", "Store", false},
		{"Unknown", "Store", false},
	}
	for _, test := range tests {
		t.Run(test.sub+"<:"+test.super, func(t *testing.T) {
			assert.Equal(t, test.expected, lattice.IsSubtype(test.sub, test.super))
		})
	}

	assert.True(t, lattice.IsAbstract(facts.T("Store")))
	assert.True(t, lattice.IsAbstract(facts.T("BaseStore")))
	assert.False(t, lattice.IsAbstract(facts.T("PostgresStore")))
	assert.False(t, lattice.IsAbstract(facts.T("Unknown")))
}
