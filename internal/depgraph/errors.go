package depgraph

import (
	"fmt"
	"go/token"
	"strings"
)

// Chain is the path of requests that led to an error, outermost first.
type Chain []string

func (c Chain) String() string { return strings.Join(c, " -> ") }

func (c Chain) suffix() string {
	if len(c) == 0 {
		return ""
	}
	return " (" + c.String() + ")"
}

// NoBindingFoundError is returned when no binding matches a request's type and qualifier.
type NoBindingFoundError struct {
	Type      string
	Qualifier string
	Chain     Chain
}

func (e *NoBindingFoundError) Error() string {
	return fmt.Sprintf("no binding found for %s%s", describe(e.Type, e.Qualifier), e.Chain.suffix())
}

// AmbiguousBindingError is returned when more than one binding matches a request.
type AmbiguousBindingError struct {
	Type      string
	Qualifier string
	// Candidates are the conflicting bindings, in the order they were detected.
	Candidates []string
	Chain      Chain
}

func (e *AmbiguousBindingError) Error() string {
	return fmt.Sprintf("ambiguous bindings for %s: %s%s", describe(e.Type, e.Qualifier), strings.Join(e.Candidates, ", "), e.Chain.suffix())
}

// CyclicDependencyError is returned when a type re-enters its own active construction branch.
type CyclicDependencyError struct {
	// Edge is the relation that closed the cycle.
	Edge Edge
	// Cycle is the list of types forming the cycle, starting and ending with the same type.
	Cycle []string
	Chain Chain
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic %s dependency: %s%s", e.Edge, strings.Join(e.Cycle, " -> "), e.Chain.suffix())
}

// UnsupportedParameterTypeError is returned when a binding parameter cannot be constructed.
type UnsupportedParameterTypeError struct {
	Binding   string
	Parameter string
	Type      string
	Kind      string
	Chain     Chain
}

func (e *UnsupportedParameterTypeError) Error() string {
	return fmt.Sprintf("%s: parameter %s has unsupported %s type %s%s", e.Binding, e.Parameter, e.Kind, e.Type, e.Chain.suffix())
}

// PrivateAccessError is returned when a private injection point has no accessor at all.
type PrivateAccessError struct {
	Position token.Position
	Class    string
	Member   string
}

func (e *PrivateAccessError) Error() string {
	return fmt.Sprintf("%s: %s.%s is private and has no getter or setter", e.Position, e.Class, e.Member)
}

// MissingGetterOrSetterError is returned when a private injection point has only half of its accessor pair.
type MissingGetterOrSetterError struct {
	Position token.Position
	Class    string
	Member   string
	// Missing is either "getter" or "setter".
	Missing string
}

func (e *MissingGetterOrSetterError) Error() string {
	return fmt.Sprintf("%s: %s.%s is private and has no %s", e.Position, e.Class, e.Member, e.Missing)
}

// InvalidBindingSignatureError is returned when a binding declaration violates arity or visibility rules.
type InvalidBindingSignatureError struct {
	Position token.Position
	Binding  string
	Reason   string
}

func (e *InvalidBindingSignatureError) Error() string {
	return fmt.Sprintf("%s: invalid binding %s: %s", e.Position, e.Binding, e.Reason)
}

// RedundantSingletonWarning is a non-fatal diagnostic for a singleton that is only used once in a pass.
type RedundantSingletonWarning struct {
	Key ScopeKey
}

func (w RedundantSingletonWarning) String() string {
	return fmt.Sprintf("%s is declared singleton but only used once", describe(w.Key.Type, w.Key.Qualifier))
}

func describe(typ, qualifier string) string {
	if qualifier == "" {
		return typ
	}
	return fmt.Sprintf("%s(qualifier=%q)", typ, qualifier)
}
