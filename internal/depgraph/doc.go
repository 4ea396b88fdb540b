// Package depgraph resolves the injection points of a [facts.Universe] into per-target dependency trees.
//
// A [Pass] owns all state for one compilation pass. Running it proceeds as follows:
//
//  1. Modules are aggregated transitively from the universe's roots and every provider method is validated.
//  2. A [TargetUnit] is created for every class with injection points, and for each of its ancestors. Units are
//     processed ancestors first.
//  3. Each injection point is resolved into a [Node] tree. Wrappers are stripped from the request and re-applied
//     to the result. A request satisfied by the target itself, or by an accessor declared on the target or one of
//     its ancestors, short-circuits. Otherwise the binding is selected in this order:
//     abstract type implementation, provider method, constructor.
//  4. Singleton and scoped subtrees are built once per [ScopeKey] and shared through the [Registry]. They are
//     resolved in a context rooted at their own declaring type.
//  5. Constructor and field chains are tracked separately by a [CycleGuard]; a type re-entering its own active
//     chain is a [CyclicDependencyError].
//  6. Injection points are ordered by depth-weighted usage across the pass, and every node is given a
//     collision-free identifier within its target.
//
// Resolution fails on the first error and never returns a partial result. Every observable output is sorted
// by stable keys, so identical input always produces identical results.
package depgraph
