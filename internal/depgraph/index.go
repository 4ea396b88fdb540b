package depgraph

import (
	"slices"
	"strings"

	"github.com/alecthomas/errors"

	"github.com/alecthomas/zeroinject/internal/facts"
)

// Candidate is an entry in the [Index] that can satisfy a request.
//
// Exactly one of Class or Factory is set.
type Candidate struct {
	Produces  facts.TypeRef
	Qualifier string
	Singleton bool
	Scope     string
	// Class is set for classes explicitly marked as providing an implementation.
	Class *facts.ClassDecl
	// Factory is set for module provider methods.
	Factory *FactoryBinding
}

// Key returns a stable identifier for the candidate.
func (c *Candidate) Key() string {
	if c.Factory != nil {
		return c.Factory.BindingKey()
	}
	return c.Class.Name
}

// Binds returns the implementation type of an abstract factory method.
func (c *Candidate) Binds() (facts.TypeRef, bool) {
	if c.Factory == nil || !c.Factory.Method.Abstract {
		return facts.TypeRef{}, false
	}
	return c.Factory.Method.Params[0].Type, true
}

// Index is the catalogue of all bindings available in a pass.
type Index struct {
	lattice    *Lattice
	candidates []*Candidate
	factories  map[string][]*Candidate
	modules    []string
}

// NewIndex builds the binding index for universe.
//
// Modules are aggregated transitively from the universe's root modules, visiting each module at most once.
func NewIndex(universe *facts.Universe, lattice *Lattice) (*Index, error) {
	idx := &Index{lattice: lattice, factories: map[string][]*Candidate{}}

	classes := slices.Clone(universe.Classes)
	slices.SortFunc(classes, func(a, b *facts.ClassDecl) int { return strings.Compare(a.Name, b.Name) })
	for _, class := range classes {
		if !class.Provides || class.Kind != facts.Class {
			continue
		}
		idx.candidates = append(idx.candidates, &Candidate{
			Produces:  class.Type(),
			Qualifier: class.Qualifier,
			Singleton: class.Singleton,
			Scope:     class.Scope,
			Class:     class,
		})
	}

	modules, err := aggregateModules(universe)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, module := range modules {
		idx.modules = append(idx.modules, module.Name)
		for i := range module.Methods {
			method := &module.Methods[i]
			if err := validateFactory(universe, lattice, module, method); err != nil {
				return nil, errors.WithStack(err)
			}
			params := make([]Request, 0, len(method.Params))
			for _, param := range method.Params {
				params = append(params, Request{
					Target:    module.Name,
					Name:      param.Name,
					Type:      param.Type,
					Qualifier: param.Qualifier,
					Wrapper:   param.Wrapper,
					Kind:      facts.ConstructorParam,
				})
			}
			candidate := &Candidate{
				Produces:  method.Produces,
				Qualifier: method.Qualifier,
				Singleton: method.Singleton,
				Scope:     method.Scope,
				Factory: &FactoryBinding{
					Module:    module,
					Method:    method,
					Singleton: method.Singleton,
					Static:    method.Static,
					Params:    params,
				},
			}
			idx.candidates = append(idx.candidates, candidate)
			if !method.Abstract {
				key := method.Produces.String()
				idx.factories[key] = append(idx.factories[key], candidate)
			}
		}
	}
	return idx, nil
}

// Modules returns the names of the aggregated modules, in visiting order.
func (i *Index) Modules() []string { return i.modules }

// Implementations returns every candidate whose produced type is a subtype of t and whose qualifier matches.
func (i *Index) Implementations(t facts.TypeRef, qualifier string) []*Candidate {
	var out []*Candidate
	for _, candidate := range i.candidates {
		if !MatchQualifier(candidate.Qualifier, qualifier) {
			continue
		}
		if !i.lattice.IsSubtype(candidate.Produces.Key(), t.Key()) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// Factory returns the non-abstract factory candidates producing exactly t with a matching qualifier.
//
// The search stops at the second match, so at most two candidates are returned.
func (i *Index) Factory(t facts.TypeRef, qualifier string) []*Candidate {
	var out []*Candidate
	for _, candidate := range i.factories[t.String()] {
		if !MatchQualifier(candidate.Qualifier, qualifier) {
			continue
		}
		out = append(out, candidate)
		if len(out) == 2 {
			break
		}
	}
	return out
}

// HasFactory returns true if a non-abstract factory produces exactly t with a matching qualifier.
func (i *Index) HasFactory(t facts.TypeRef, qualifier string) bool {
	return len(i.Factory(t, qualifier)) > 0
}

func aggregateModules(universe *facts.Universe) ([]*facts.Module, error) {
	roots := universe.Roots
	if len(roots) == 0 {
		for _, module := range universe.Modules {
			roots = append(roots, module.Name)
		}
		slices.Sort(roots)
	}
	visited := map[string]bool{}
	out := []*facts.Module{}
	var visit func(name, from string) error
	visit = func(name, from string) error {
		if visited[name] {
			return nil
		}
		visited[name] = true
		module := universe.Module(name)
		if module == nil {
			if from == "" {
				return errors.Errorf("unknown root module %s", name)
			}
			return errors.Errorf("%s: module %s includes unknown module %s", universe.Module(from).Position, from, name)
		}
		out = append(out, module)
		for _, include := range module.Includes {
			if err := visit(include, name); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := visit(root, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func validateFactory(universe *facts.Universe, lattice *Lattice, module *facts.Module, method *facts.FactoryMethod) error {
	invalid := func(reason string) error {
		return &InvalidBindingSignatureError{Position: method.Position, Binding: module.Name + "." + method.Name, Reason: reason}
	}
	switch {
	case method.Produces.IsZero():
		return invalid("provider must produce a value")
	case !method.Public:
		return invalid("provider must be public")
	case !method.Static && !module.Object:
		return invalid("provider on a non-object module must be static")
	}
	if kind, _ := universe.WrapperOf(method.Produces, nil); kind != facts.None {
		return invalid("provider cannot produce a " + kind.String() + " wrapper")
	}
	if !method.Abstract {
		return nil
	}
	if len(method.Params) != 1 {
		return invalid("abstract binding must take exactly one parameter")
	}
	impl := method.Params[0].Type
	if !lattice.IsSubtype(impl.Key(), method.Produces.Key()) {
		return invalid(impl.String() + " is not assignable to " + method.Produces.String())
	}
	return nil
}
