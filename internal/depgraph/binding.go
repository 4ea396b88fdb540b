package depgraph

import (
	"fmt"

	"github.com/alecthomas/zeroinject/internal/facts"
)

// Request is a single demand for a value: an injection point or a binding parameter.
type Request struct {
	// Target is the declaring type of the injection point or binding.
	Target    string
	Name      string
	Type      facts.TypeRef
	Qualifier string
	Wrapper   facts.WrapperKind
	// Kind is the relation through which the value is delivered, which selects the cycle chain.
	Kind facts.PointKind
}

func (r Request) String() string {
	out := r.Type.String()
	if r.Wrapper != facts.None {
		out = r.Wrapper.String() + " " + out
	}
	if r.Qualifier != "" {
		out += fmt.Sprintf("(qualifier=%q)", r.Qualifier)
	}
	if r.Target == "" {
		return out
	}
	return fmt.Sprintf("%s.%s: %s", simpleName(r.Target), r.Name, out)
}

// Edge returns the cycle chain this request participates in.
func (r Request) Edge() Edge {
	if r.Kind == facts.ConstructorParam {
		return ConstructorEdge
	}
	return FieldEdge
}

// Binding is a declared way to produce a value.
//
// Bindings are facts shared between nodes: multiple nodes may reference the same binding.
//
//sumtype:decl
type Binding interface {
	// BindingKey returns a stable human readable identifier for the binding.
	BindingKey() string
	// BindingParams returns the requests for the binding's parameters, in order.
	BindingParams() []Request
	binding()
}

// ConstructorBinding constructs a class through one of its constructors.
type ConstructorBinding struct {
	Produces facts.TypeRef
	Class    *facts.ClassDecl
	// Constructor is nil for the implicit no-argument constructor.
	Constructor *facts.Constructor
	Params      []Request
}

var _ Binding = (*ConstructorBinding)(nil)

func (c *ConstructorBinding) binding()                 {}
func (c *ConstructorBinding) BindingParams() []Request { return c.Params }
func (c *ConstructorBinding) BindingKey() string {
	if c.Constructor == nil || c.Constructor.Name == "" {
		return c.Produces.String() + ".<init>"
	}
	return c.Produces.String() + "." + c.Constructor.Name
}

// FactoryBinding calls a provider method declared on a module.
type FactoryBinding struct {
	Module    *facts.Module
	Method    *facts.FactoryMethod
	Singleton bool
	Static    bool
	Params    []Request
}

var _ Binding = (*FactoryBinding)(nil)

func (f *FactoryBinding) binding()                 {}
func (f *FactoryBinding) BindingParams() []Request { return f.Params }
func (f *FactoryBinding) BindingKey() string       { return f.Module.Name + "." + f.Method.Name }

// SelfBinding is satisfied by the active target itself (or one of its ancestor types).
type SelfBinding struct {
	Target string
}

var _ Binding = (*SelfBinding)(nil)

func (s *SelfBinding) binding()                 {}
func (s *SelfBinding) BindingParams() []Request { return nil }
func (s *SelfBinding) BindingKey() string       { return s.Target + ".<self>" }

// LocalAccessorBinding reads a value through a getter on the target or one of its ancestors.
type LocalAccessorBinding struct {
	// Owner is the class declaring the accessor.
	Owner    string
	Accessor facts.Accessor
}

var _ Binding = (*LocalAccessorBinding)(nil)

func (l *LocalAccessorBinding) binding()                 {}
func (l *LocalAccessorBinding) BindingParams() []Request { return nil }
func (l *LocalAccessorBinding) BindingKey() string       { return l.Owner + "." + l.Accessor.Name }

// Node is a resolved construction of a value.
type Node struct {
	// Type is the effective (concrete) type produced by the node.
	Type      facts.TypeRef
	Qualifier string
	// Request is the unwrapped request the node was first built for.
	Request Request
	Binding Binding
	// Children are the resolved binding parameters, in order.
	Children []Ref
	// Members are the resolved field and setter injection points of a constructed class, ancestors first.
	Members   []Member
	Singleton bool
	Scope     string
}

// Member is a resolved field or setter injection point of a constructed class.
type Member struct {
	// Class declaring the injection point.
	Class string
	Point facts.InjectionPoint
	Ref   Ref
}

// Terminal returns true if the node was produced by a Self or LocalAccessor shortcut.
func (n *Node) Terminal() bool {
	switch n.Binding.(type) {
	case *SelfBinding, *LocalAccessorBinding:
		return true
	default:
		return false
	}
}

// Ref is an edge to a resolved [Node].
//
// A Ref either owns its node exclusively (Shared is nil) or references a node owned by the
// [Registry] for the given key. Shared nodes must be emitted once and referenced everywhere else.
type Ref struct {
	Node    *Node
	Shared  *ScopeKey
	Wrapper facts.WrapperKind
	// Request is the unwrapped request resolved at this position, which may differ from the request the node
	// was first built for.
	Request Request
}

// Owned creates a Ref that exclusively owns n.
func Owned(n *Node) Ref { return Ref{Node: n} }

// SharedRef creates a Ref to a registry-owned node.
func SharedRef(key ScopeKey, n *Node) Ref { return Ref{Node: n, Shared: &key} }

// IsShared returns true if the referenced node is owned by the registry.
func (r Ref) IsShared() bool { return r.Shared != nil }

// Walk visits every node reachable from r in pre-order, passing the depth relative to r.
//
// Shared nodes are visited at every occurrence. Returning false from visit skips the node's subtree.
func (r Ref) Walk(visit func(ref Ref, depth int) bool) {
	r.walk(0, visit)
}

func (r Ref) walk(depth int, visit func(ref Ref, depth int) bool) {
	if !visit(r, depth) {
		return
	}
	for _, child := range r.Node.Children {
		child.walk(depth+1, visit)
	}
	for _, member := range r.Node.Members {
		member.Ref.walk(depth+1, visit)
	}
}

func simpleName(name string) string {
	return facts.TypeRef{Name: name}.Simple()
}
