package depgraph

import (
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/alecthomas/zeroinject/internal/facts"
)

func TestOrderByDepthWeight(t *testing.T) {
	result := runPass(t, &facts.Universe{Classes: []*facts.ClassDecl{
		class("App", field("a", "A"), field("c", "C")),
		withCtor(class("A"), ctor("NewA", param("b", "B"))),
		withCtor(class("B"), ctor("NewB", param("c", "C"))),
		class("C"),
	}})
	app := result.Target("App")
	assert.Equal(t, []string{"c:0:2", "a:1:0"}, ranks(app))
}

func TestOrderTieBreak(t *testing.T) {
	result := runPass(t, &facts.Universe{Classes: []*facts.ClassDecl{
		class("App", field("z", "Zeta"), field("y", "Alpha"), field("b", "Dep"), field("a", "Dep")),
		class("Zeta"),
		class("Alpha"),
		class("Dep"),
	}})
	assert.Equal(t, []string{"y:0:0", "a:1:0", "b:2:0", "z:3:0"}, ranks(result.Target("App")))
}

func TestOrdererAccumulatesAcrossTargets(t *testing.T) {
	result := runPass(t, &facts.Universe{Classes: []*facts.ClassDecl{
		class("X", field("a", "A"), field("b", "B")),
		class("Y", field("c", "C")),
		withCtor(class("A"), ctor("NewA", param("b", "B"))),
		class("B"),
		withCtor(class("C"), ctor("NewC", param("b", "B"))),
	}})
	// B is at depth 1 under both A and C, so it outranks A within X.
	assert.Equal(t, []string{"b:0:2", "a:1:0"}, ranks(result.Target("X")))
}

func ranks(unit *TargetUnit) []string {
	out := []string{}
	for _, point := range unit.Points {
		out = append(out, point.Point.Name+":"+strconv.Itoa(point.Rank)+":"+strconv.Itoa(point.Weight))
	}
	return out
}
