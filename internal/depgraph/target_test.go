package depgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/alecthomas/zeroinject/internal/facts"
)

func TestTargetsAncestorsFirst(t *testing.T) {
	middle := class("Middle")
	middle.Parent = "Base"
	leaf := class("Leaf", field("config", "Config"))
	leaf.Parent = "Middle"
	orphan := class("Orphan")
	orphan.Parent = "Base"
	result := runPass(t, &facts.Universe{Classes: []*facts.ClassDecl{
		leaf,
		orphan,
		middle,
		class("Base", field("logger", "Logger")),
		class("Logger"),
		class("Config"),
	}})
	names := []string{}
	for _, unit := range result.Targets {
		names = append(names, unit.Type())
	}
	assert.Equal(t, []string{"Base", "Middle", "Leaf"}, names)

	base, mid, leafUnit := result.Targets[0], result.Targets[1], result.Targets[2]
	assert.Zero(t, base.ParentUnit())
	assert.Zero(t, base.InjectParentUnit())
	assert.True(t, base == mid.ParentUnit())
	assert.True(t, mid == leafUnit.ParentUnit())
	assert.Equal(t, 0, len(mid.Points))
	// Middle has no injection points of its own, so Leaf chains straight to Base.
	assert.Equal(t, base.Index, leafUnit.InjectParent)
	assert.Equal(t, base.Index, mid.InjectParent)
}

func TestArena(t *testing.T) {
	var nilArena *Arena
	assert.Zero(t, nilArena.At(0))
	arena := NewArena()
	assert.Zero(t, arena.At(-1))
	assert.Zero(t, arena.Lookup("App"))
	assert.Equal(t, 0, len(arena.Units()))
}
