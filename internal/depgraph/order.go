package depgraph

import (
	"cmp"
	"slices"
)

// Orderer ranks injection points by depth-weighted usage across a whole pass.
//
// The weight of a type is the sum of its depths over every occurrence in every root-to-leaf path of every
// target, with each target's own injection points at depth 0. Types that are used more often, and more
// deeply, are established earlier.
type Orderer struct {
	weights map[string]int
}

// NewOrderer creates an empty [Orderer].
func NewOrderer() *Orderer {
	return &Orderer{weights: map[string]int{}}
}

// Accumulate adds the depths of every node reachable from the units' injection points.
func (o *Orderer) Accumulate(units []*TargetUnit) {
	for _, unit := range units {
		for _, point := range unit.Points {
			point.Ref.Walk(func(ref Ref, depth int) bool {
				o.weights[ref.Node.Type.String()] += depth
				return true
			})
		}
	}
}

// Weight returns the accumulated order weight of a type.
func (o *Orderer) Weight(typ string) int { return o.weights[typ] }

// Sort the unit's injection points by descending weight and assign their ranks.
//
// Ties are broken by type, qualifier and point name, so the order never depends on declaration order.
func (o *Orderer) Sort(unit *TargetUnit) {
	for _, point := range unit.Points {
		point.Weight = o.Weight(point.Ref.Node.Type.String())
	}
	slices.SortStableFunc(unit.Points, func(a, b *Injection) int {
		return cmp.Or(
			cmp.Compare(b.Weight, a.Weight),
			cmp.Compare(a.Ref.Node.Type.String(), b.Ref.Node.Type.String()),
			cmp.Compare(a.Ref.Node.Qualifier, b.Ref.Node.Qualifier),
			cmp.Compare(a.Point.Name, b.Point.Name),
		)
	})
	for i, point := range unit.Points {
		point.Rank = i
	}
}

// Reset clears all accumulated weights.
func (o *Orderer) Reset() {
	clear(o.weights)
}
