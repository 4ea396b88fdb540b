package depgraph

import (
	"github.com/alecthomas/zeroinject/internal/facts"
)

// Lattice answers subtype queries over the full inheritance and interface lattice.
type Lattice struct {
	universe *facts.Universe
	supers   map[string][]string
}

// NewLattice creates a [Lattice] over the classes in universe.
func NewLattice(universe *facts.Universe) *Lattice {
	return &Lattice{universe: universe, supers: map[string][]string{}}
}

func (l *Lattice) direct(name string) []string {
	class := l.universe.Class(name)
	if class == nil {
		return nil
	}
	out := make([]string, 0, len(class.Supers)+1)
	if class.Parent != "" {
		out = append(out, class.Parent)
	}
	return append(out, class.Supers...)
}

// Supertypes returns every transitive supertype of name in breadth-first order, excluding name itself.
func (l *Lattice) Supertypes(name string) []string {
	if cached, ok := l.supers[name]; ok {
		return cached
	}
	seen := map[string]bool{name: true}
	out := []string{}
	queue := l.direct(name)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		out = append(out, current)
		queue = append(queue, l.direct(current)...)
	}
	l.supers[name] = out
	return out
}

// IsSubtype returns true if sub is super, or transitively extends or implements super.
func (l *Lattice) IsSubtype(sub, super string) bool {
	if sub == super {
		return true
	}
	for _, candidate := range l.Supertypes(sub) {
		if candidate == super {
			return true
		}
	}
	return false
}

// Ancestors returns the single-inheritance parent chain of name, nearest first.
func (l *Lattice) Ancestors(name string) []string {
	seen := map[string]bool{name: true}
	out := []string{}
	for class := l.universe.Class(name); class != nil && class.Parent != ""; class = l.universe.Class(class.Parent) {
		if seen[class.Parent] {
			break
		}
		seen[class.Parent] = true
		out = append(out, class.Parent)
	}
	return out
}

// IsAbstract returns true if t must be resolved through an implementation binding.
func (l *Lattice) IsAbstract(t facts.TypeRef) bool {
	switch l.universe.KindOf(t) {
	case facts.Interface, facts.Abstract:
		return true
	default:
		return false
	}
}
