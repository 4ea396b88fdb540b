package depgraph

import (
	"cmp"
	"slices"

	"github.com/alecthomas/zeroinject/internal/facts"
)

// Injection is a resolved injection point of a [TargetUnit].
type Injection struct {
	Point   facts.InjectionPoint
	Request Request
	Ref     Ref
	// Weight is the order weight of the point's type across the whole pass.
	Weight int
	// Rank is the emission position of the point within its target.
	Rank int
}

// TargetUnit is a class with injection points, or an ancestor of one.
type TargetUnit struct {
	Class *facts.ClassDecl
	// Index of the unit in its [Arena].
	Index int
	// Parent is the arena index of the direct superclass unit, or -1.
	Parent int
	// InjectParent is the arena index of the nearest ancestor with resolved injection points, or -1.
	//
	// Generated injection logic for this target chains to that ancestor's logic before its own.
	InjectParent int
	// Points are the target's own resolved injection points, in emission order once the pass completes.
	Points []*Injection
	// Locals maps locally satisfiable types to the accessor declared on this class.
	Locals map[string]facts.Accessor

	arena  *Arena
	idents map[*Node]string
}

// Type returns the name of the target's declaring type.
func (t *TargetUnit) Type() string { return t.Class.Name }

// ParentUnit returns the unit of the direct superclass, or nil.
func (t *TargetUnit) ParentUnit() *TargetUnit { return t.arena.At(t.Parent) }

// InjectParentUnit returns the nearest ancestor unit with resolved injection points, or nil.
func (t *TargetUnit) InjectParentUnit() *TargetUnit { return t.arena.At(t.InjectParent) }

// Ident returns the generated identifier of a node within this target's emission scope.
func (t *TargetUnit) Ident(node *Node) string { return t.idents[node] }

// LocalAccessor finds an accessor yielding typ on this target or its ancestors, nearest first.
func (t *TargetUnit) LocalAccessor(typ facts.TypeRef, qualifier string) (owner string, accessor facts.Accessor, ok bool) {
	key := localKey(typ, qualifier)
	for unit := t; unit != nil; unit = unit.ParentUnit() {
		if accessor, ok := unit.Locals[key]; ok {
			return unit.Type(), accessor, true
		}
	}
	return "", facts.Accessor{}, false
}

func localKey(typ facts.TypeRef, qualifier string) string {
	return describe(typ.String(), qualifier)
}

// Arena owns the target units of a pass and links them through parent indices.
type Arena struct {
	units  []*TargetUnit
	byName map[string]int
}

// NewArena creates an empty [Arena].
func NewArena() *Arena {
	return &Arena{byName: map[string]int{}}
}

// At returns the unit at index i, or nil if i is out of range.
func (a *Arena) At(i int) *TargetUnit {
	if a == nil || i < 0 || i >= len(a.units) {
		return nil
	}
	return a.units[i]
}

// Lookup returns the unit for the named class, or nil.
func (a *Arena) Lookup(name string) *TargetUnit {
	i, ok := a.byName[name]
	if !ok {
		return nil
	}
	return a.units[i]
}

// Units returns all units, ancestors before descendants.
func (a *Arena) Units() []*TargetUnit { return a.units }

// buildTargets creates a unit for every class with injection points and for every ancestor of such a class,
// then resolves each unit's own injection points, ancestors first.
func (p *Pass) buildTargets() error {
	include := map[string]bool{}
	for _, class := range p.universe.Classes {
		if class.Kind != facts.Class || len(class.Points) == 0 {
			continue
		}
		include[class.Name] = true
		for _, ancestor := range p.lattice.Ancestors(class.Name) {
			if p.universe.Class(ancestor) != nil {
				include[ancestor] = true
			}
		}
	}
	type ordered struct {
		name  string
		depth int
	}
	order := make([]ordered, 0, len(include))
	for name := range include {
		order = append(order, ordered{name: name, depth: len(p.lattice.Ancestors(name))})
	}
	slices.SortFunc(order, func(a, b ordered) int {
		return cmp.Or(cmp.Compare(a.depth, b.depth), cmp.Compare(a.name, b.name))
	})

	for i, entry := range order {
		class := p.universe.Class(entry.name)
		unit := &TargetUnit{
			Class:        class,
			Index:        i,
			Parent:       -1,
			InjectParent: -1,
			Locals:       map[string]facts.Accessor{},
			arena:        p.arena,
			idents:       map[*Node]string{},
		}
		for _, accessor := range class.Accessors {
			unit.Locals[localKey(accessor.Type, accessor.Qualifier)] = accessor
		}
		p.arena.units = append(p.arena.units, unit)
		p.arena.byName[class.Name] = i
	}
	for _, unit := range p.arena.units {
		if parent, ok := p.arena.byName[unit.Class.Parent]; ok {
			unit.Parent = parent
		}
	}

	for _, unit := range p.arena.units {
		for _, point := range unit.Class.Points {
			if err := validateAccess(unit.Class, point); err != nil {
				return err
			}
		}
		for _, point := range unit.Class.Points {
			req := pointRequest(unit.Class, point)
			ref, err := p.resolve(req, unit)
			if err != nil {
				return err
			}
			unit.Points = append(unit.Points, &Injection{Point: point, Request: req, Ref: ref})
		}
		for ancestor := unit.ParentUnit(); ancestor != nil; ancestor = ancestor.ParentUnit() {
			if len(ancestor.Points) > 0 {
				unit.InjectParent = ancestor.Index
				break
			}
		}
		p.logger.Debug("Resolved target", "target", unit.Type(), "points", len(unit.Points))
	}
	return nil
}

func pointRequest(class *facts.ClassDecl, point facts.InjectionPoint) Request {
	return Request{
		Target:    class.Name,
		Name:      point.Name,
		Type:      point.Type,
		Qualifier: point.Qualifier,
		Wrapper:   point.Wrapper,
		Kind:      point.Kind,
	}
}

// validateAccess checks that a private injection point is reachable through a getter/setter pair.
func validateAccess(class *facts.ClassDecl, point facts.InjectionPoint) error {
	if !point.Private || point.Kind == facts.ConstructorParam {
		return nil
	}
	if point.Kind == facts.Setter {
		if point.Setter == "" {
			return &PrivateAccessError{Position: point.Position, Class: class.Name, Member: point.Name}
		}
		return nil
	}
	switch {
	case point.Getter == "" && point.Setter == "":
		return &PrivateAccessError{Position: point.Position, Class: class.Name, Member: point.Name}
	case point.Getter == "":
		return &MissingGetterOrSetterError{Position: point.Position, Class: class.Name, Member: point.Name, Missing: "getter"}
	case point.Setter == "":
		return &MissingGetterOrSetterError{Position: point.Position, Class: class.Name, Member: point.Name, Missing: "setter"}
	}
	return nil
}
