package depgraph

import (
	"strconv"

	"github.com/alecthomas/zeroinject/internal/strcase"
)

// TargetIdent is the reserved identifier of the active target unit.
const TargetIdent = "target"

// NameUniquer assigns collision-free local identifiers to nodes within each target's emission scope.
type NameUniquer struct {
	scopes map[string]map[string]bool
}

// NewNameUniquer creates an empty [NameUniquer].
func NewNameUniquer() *NameUniquer {
	return &NameUniquer{scopes: map[string]map[string]bool{}}
}

// SharedScope is the naming scope of the shared subtrees, which are emitted once per pass rather than per target.
const SharedScope = "<shared>"

// Assign identifiers to every node reachable from the unit's injection points, in emission order.
//
// A shared node referenced more than once within the target is named once.
func (n *NameUniquer) Assign(unit *TargetUnit) {
	roots := make([]Ref, 0, len(unit.Points))
	for _, point := range unit.Points {
		roots = append(roots, point.Ref)
	}
	n.assign(unit.Type(), unit.Type(), unit.idents, roots)
}

// AssignShared names the nodes of every shared subtree in [SharedScope].
func (n *NameUniquer) AssignShared(shared []SharedNode) map[*Node]string {
	idents := map[*Node]string{}
	roots := make([]Ref, 0, len(shared))
	for _, entry := range shared {
		roots = append(roots, SharedRef(entry.Key, entry.Node))
	}
	n.assign(SharedScope, "", idents, roots)
	return idents
}

// assign names nodes in pre-order. Only a self reference to target is named [TargetIdent]; any other self
// reference takes the identifier of the nearest enclosing node it refers to.
func (n *NameUniquer) assign(scope, target string, idents map[*Node]string, roots []Ref) {
	for _, root := range roots {
		var enclosing []*Node
		root.Walk(func(ref Ref, depth int) bool {
			outer := enclosing[:depth]
			enclosing = append(outer, ref.Node)
			if _, ok := idents[ref.Node]; ok {
				return false
			}
			if self, ok := ref.Node.Binding.(*SelfBinding); ok {
				if self.Target == target {
					idents[ref.Node] = TargetIdent
					return true
				}
				for i := len(outer) - 1; i >= 0; i-- {
					if outer[i].Type.Key() == self.Target {
						idents[ref.Node] = idents[outer[i]]
						return true
					}
				}
			}
			idents[ref.Node] = n.Unique(scope, baseIdent(ref))
			return true
		})
	}
}

// Unique returns base, or base with the smallest unused integer suffix starting at 2, and marks it taken.
func (n *NameUniquer) Unique(scope, base string) string {
	taken, ok := n.scopes[scope]
	if !ok {
		taken = map[string]bool{TargetIdent: true}
		n.scopes[scope] = taken
	}
	name := base
	for i := 2; taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	taken[name] = true
	return name
}

// Reset forgets all assigned identifiers.
func (n *NameUniquer) Reset() {
	clear(n.scopes)
}

// baseIdent derives an identifier from the type requested at ref's position.
func baseIdent(ref Ref) string {
	typ := ref.Request.Type
	if typ.IsZero() {
		typ = ref.Node.Request.Type
	}
	name := strcase.LowerCamel(typ.Simple())
	if name == "" {
		return "value"
	}
	return name
}
