package depgraph

import (
	"slices"
)

// Edge is the relation through which a dependency is delivered.
type Edge int

const (
	// ConstructorEdge is a constructor or factory argument: the value must exist before its dependent.
	ConstructorEdge Edge = iota
	// FieldEdge is a field or setter: the value is populated after its dependent is constructed.
	FieldEdge
)

func (e Edge) String() string {
	if e == FieldEdge {
		return "field"
	}
	return "constructor"
}

// CycleGuard tracks the types under construction on the active branch of one root request.
//
// Constructor chains and field chains are tracked separately, because a field populated after construction
// completes does not take part in a constructor cycle.
type CycleGuard struct {
	stacks [2][]string
	path   []string
}

// NewCycleGuard creates a guard for a root request made by target.
func NewCycleGuard(target string) *CycleGuard {
	g := &CycleGuard{}
	if target != "" {
		g.stacks[ConstructorEdge] = []string{target}
		g.stacks[FieldEdge] = []string{target}
		g.path = []string{target}
	}
	return g
}

// Check returns a [CyclicDependencyError] if typ is already under construction on the edge's chain.
func (g *CycleGuard) Check(edge Edge, typ string) error {
	stack := g.stacks[edge]
	i := slices.Index(stack, typ)
	if i == -1 {
		return nil
	}
	start := slices.Index(g.path, typ)
	if start == -1 {
		start = 0
	}
	cycle := append(slices.Clone(g.path[start:]), typ)
	return &CyclicDependencyError{Edge: edge, Cycle: cycle}
}

// Enter marks typ as under construction on the edge's chain, returning a function that must be called to leave.
func (g *CycleGuard) Enter(edge Edge, typ string) (leave func(), err error) {
	if err := g.Check(edge, typ); err != nil {
		return nil, err
	}
	// Constructing a value always extends the constructor chain; only field edges additionally extend the
	// field chain.
	g.stacks[ConstructorEdge] = append(g.stacks[ConstructorEdge], typ)
	if edge == FieldEdge {
		g.stacks[FieldEdge] = append(g.stacks[FieldEdge], typ)
	}
	g.path = append(g.path, typ)
	return func() {
		g.stacks[ConstructorEdge] = g.stacks[ConstructorEdge][:len(g.stacks[ConstructorEdge])-1]
		if edge == FieldEdge {
			g.stacks[FieldEdge] = g.stacks[FieldEdge][:len(g.stacks[FieldEdge])-1]
		}
		g.path = g.path[:len(g.path)-1]
	}, nil
}

// Depth returns the length of the active branch.
func (g *CycleGuard) Depth() int { return len(g.path) }
