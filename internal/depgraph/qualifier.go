package depgraph

import "github.com/alecthomas/zeroinject/internal/facts"

// MatchQualifier returns true if a candidate binding's qualifier satisfies a request's qualifier.
//
// An unqualified request is only satisfied by an unqualified candidate, and vice versa.
func MatchQualifier(candidate, request string) bool {
	return candidate == request
}

// effectiveQualifier determines the qualifier of a request for the unwrapped type t.
//
// An explicit qualifier on the request takes priority over the type's own declared qualifier.
func effectiveQualifier(universe *facts.Universe, req Request, t facts.TypeRef) string {
	if req.Qualifier != "" {
		return req.Qualifier
	}
	if class := universe.Class(t.Key()); class != nil {
		return class.Qualifier
	}
	return ""
}
