package depgraph

import (
	"cmp"
	"slices"

	"github.com/alecthomas/errors"

	"github.com/alecthomas/zeroinject/internal/facts"
)

// activeContext is the type whose self and local accessor shortcuts apply to a request.
type activeContext struct {
	typ  string
	unit *TargetUnit
}

// Resolve a single request in the context of target.
//
// target may be nil, in which case no self or local accessor shortcuts apply.
func (p *Pass) Resolve(req Request, target *TargetUnit) (Ref, error) {
	if err := p.prepare(); err != nil {
		return Ref{}, err
	}
	ref, err := p.resolve(req, target)
	if err != nil {
		return Ref{}, errors.WithStack(err)
	}
	return ref, nil
}

func (p *Pass) resolve(req Request, target *TargetUnit) (Ref, error) {
	ctx := activeContext{}
	if target != nil {
		ctx = activeContext{typ: target.Type(), unit: target}
	}
	r := &resolution{pass: p, guard: NewCycleGuard(ctx.typ)}
	return r.resolve(req, ctx)
}

// contextFor returns the shortcut context rooted at the declaring type name.
func (p *Pass) contextFor(name string) activeContext {
	return activeContext{typ: name, unit: p.arena.Lookup(name)}
}

// resolution is the state of one independent top-level resolution.
type resolution struct {
	pass  *Pass
	guard *CycleGuard
	chain Chain
}

func (r *resolution) resolve(req Request, ctx activeContext) (Ref, error) {
	r.chain = append(r.chain, req.String())
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()
	p := r.pass

	// The wrapper is remembered and re-applied to the finished node.
	wrapper := req.Wrapper
	if wrapper == facts.None {
		kind, inner := p.universe.WrapperOf(req.Type, p.opts.wrappers)
		wrapper, req.Type = kind, inner
	}
	req.Wrapper = facts.None
	typ := req.Type
	qualifier := effectiveQualifier(p.universe, req, typ)
	req.Qualifier = qualifier

	if node := r.shortcut(req, typ, qualifier, ctx); node != nil {
		p.logger.Debug("Resolved shortcut", "request", req.String(), "binding", node.Binding.BindingKey())
		return Ref{Node: node, Wrapper: wrapper, Request: req}, nil
	}

	ref, err := r.construct(req, typ, qualifier, ctx)
	if err != nil {
		return Ref{}, err
	}
	ref.Wrapper = wrapper
	ref.Request = req
	return ref, nil
}

// shortcut returns a terminal node if the request is satisfied by the active target itself or a local accessor.
func (r *resolution) shortcut(req Request, typ facts.TypeRef, qualifier string, ctx activeContext) *Node {
	if ctx.typ == "" {
		return nil
	}
	if r.isSelf(req, typ, ctx) {
		return &Node{Type: typ, Qualifier: qualifier, Request: req, Binding: &SelfBinding{Target: ctx.typ}}
	}
	if ctx.unit == nil {
		return nil
	}
	if owner, accessor, ok := ctx.unit.LocalAccessor(typ, qualifier); ok {
		return &Node{Type: typ, Qualifier: qualifier, Request: req, Binding: &LocalAccessorBinding{Owner: owner, Accessor: accessor}}
	}
	return nil
}

func (r *resolution) isSelf(req Request, typ facts.TypeRef, ctx activeContext) bool {
	if len(typ.Args) > 0 || typ.Array {
		return false
	}
	if req.Qualifier != "" {
		class := r.pass.universe.Class(ctx.typ)
		if class == nil || class.Qualifier != req.Qualifier {
			return false
		}
	}
	return r.pass.lattice.IsSubtype(ctx.typ, typ.Key())
}

// selection is the outcome of binding selection for a request.
type selection struct {
	typ       facts.TypeRef
	qualifier string
	binding   Binding
	singleton bool
	scope     string
}

func (s *selection) fold(singleton bool, scope string) {
	s.singleton = s.singleton || singleton
	s.scope = cmp.Or(s.scope, scope)
}

func (r *resolution) construct(req Request, typ facts.TypeRef, qualifier string, ctx activeContext) (Ref, error) {
	p := r.pass
	edge := req.Edge()
	sel := &selection{typ: typ, qualifier: qualifier}
	sel.fold(p.declaredFlags(typ))

	// Interface and abstract types resolve through exactly one implementation.
	seen := map[string]bool{}
	for sel.binding == nil && p.lattice.IsAbstract(sel.typ) {
		if seen[sel.typ.String()] {
			return Ref{}, r.fail(&NoBindingFoundError{Type: sel.typ.String(), Qualifier: sel.qualifier})
		}
		seen[sel.typ.String()] = true
		candidate, err := r.implementation(edge, sel.typ, sel.qualifier)
		if err != nil {
			return Ref{}, err
		}
		sel.fold(candidate.Singleton, candidate.Scope)
		if impl, ok := candidate.Binds(); ok {
			sel.typ = impl
			sel.qualifier = effectiveQualifier(p.universe, Request{Qualifier: candidate.Factory.Method.Params[0].Qualifier}, impl)
			sel.fold(p.declaredFlags(impl))
			continue
		}
		if candidate.Factory != nil {
			sel.typ = candidate.Produces
			sel.binding = candidate.Factory
			continue
		}
		sel.typ = candidate.Produces
		sel.fold(p.declaredFlags(sel.typ))
	}

	// Factory methods take priority over constructors, for concrete types too.
	if sel.binding == nil {
		factories := p.index.Factory(sel.typ, sel.qualifier)
		if len(factories) > 1 {
			return Ref{}, r.fail(&AmbiguousBindingError{
				Type:       sel.typ.String(),
				Qualifier:  sel.qualifier,
				Candidates: []string{factories[0].Key(), factories[1].Key()},
			})
		}
		if len(factories) == 1 {
			sel.binding = factories[0].Factory
			sel.fold(factories[0].Singleton, factories[0].Scope)
		}
	}

	leave, err := r.guard.Enter(edge, sel.typ.Key())
	if err != nil {
		return Ref{}, r.fail(err)
	}
	defer leave()

	if !sel.singleton && sel.scope == "" {
		node, err := r.build(req, sel, ctx)
		if err != nil {
			return Ref{}, err
		}
		return Owned(node), nil
	}

	// Shared subtrees are resolved in a context rooted at the binding's own declaring type, so that their
	// contents do not depend on which caller built them first.
	declaring := sel.typ.Key()
	if factory, ok := sel.binding.(*FactoryBinding); ok {
		declaring = factory.Module.Name
	}
	key := ScopeKey{Type: sel.typ.String(), Qualifier: sel.qualifier, Scope: cmp.Or(sel.scope, RootScope)}
	node, err := p.registry.GetOrBuild(key, sel.singleton, func() (*Node, error) {
		p.logger.Debug("Building shared subtree", "key", key.String())
		return r.build(req, sel, p.contextFor(declaring))
	})
	if err != nil {
		return Ref{}, err
	}
	return SharedRef(key, node), nil
}

// implementation selects the single implementation candidate for an abstract type.
//
// Every candidate considered is checked for cycles, and resolution fails on the first detected ambiguity.
func (r *resolution) implementation(edge Edge, typ facts.TypeRef, qualifier string) (*Candidate, error) {
	var chosen *Candidate
	for _, candidate := range r.pass.index.Implementations(typ, qualifier) {
		impl := candidate.Produces
		if binds, ok := candidate.Binds(); ok {
			impl = binds
		}
		if err := r.guard.Check(edge, impl.Key()); err != nil {
			return nil, r.fail(err)
		}
		if chosen != nil {
			return nil, r.fail(&AmbiguousBindingError{
				Type:       typ.String(),
				Qualifier:  qualifier,
				Candidates: []string{chosen.Key(), candidate.Key()},
			})
		}
		chosen = candidate
	}
	if chosen == nil {
		return nil, r.fail(&NoBindingFoundError{Type: typ.String(), Qualifier: qualifier})
	}
	return chosen, nil
}

func (r *resolution) build(req Request, sel *selection, ctx activeContext) (*Node, error) {
	p := r.pass
	binding := sel.binding
	if binding == nil {
		ctor, err := r.constructor(sel.typ, sel.qualifier)
		if err != nil {
			return nil, err
		}
		binding = ctor
	}
	p.logger.Debug("Resolved", "request", req.String(), "binding", binding.BindingKey(), "depth", r.guard.Depth())
	node := &Node{
		Type:      sel.typ,
		Qualifier: sel.qualifier,
		Request:   req,
		Binding:   binding,
		Singleton: sel.singleton,
		Scope:     sel.scope,
	}
	for _, param := range binding.BindingParams() {
		if err := r.checkParam(binding, param); err != nil {
			return nil, err
		}
		ref, err := r.resolve(param, ctx)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, ref)
	}
	if ctor, ok := binding.(*ConstructorBinding); ok {
		members, err := r.members(ctor.Class)
		if err != nil {
			return nil, err
		}
		node.Members = members
	}
	return node, nil
}

// constructor selects the constructor of a concrete class.
//
// An explicitly marked constructor wins, then the only constructor with parameters, then a no-argument
// constructor. A class without declared constructors has an implicit no-argument constructor.
func (r *resolution) constructor(typ facts.TypeRef, qualifier string) (*ConstructorBinding, error) {
	class := r.pass.universe.Class(typ.Key())
	if class == nil || class.Kind != facts.Class {
		return nil, r.fail(&NoBindingFoundError{Type: typ.String(), Qualifier: qualifier})
	}
	binding := &ConstructorBinding{Produces: typ, Class: class}
	if len(class.Constructors) == 0 {
		return binding, nil
	}
	var (
		marked     []*facts.Constructor
		withParams []*facts.Constructor
		noArgs     *facts.Constructor
	)
	for i := range class.Constructors {
		ctor := &class.Constructors[i]
		if ctor.Inject {
			marked = append(marked, ctor)
		}
		if len(ctor.Params) > 0 {
			withParams = append(withParams, ctor)
		} else if noArgs == nil {
			noArgs = ctor
		}
	}
	switch {
	case len(marked) > 1:
		return nil, r.fail(&InvalidBindingSignatureError{
			Position: marked[1].Position,
			Binding:  class.Name + "." + marked[1].Name,
			Reason:   "only one constructor may be marked for injection",
		})
	case len(marked) == 1:
		binding.Constructor = marked[0]
	case len(withParams) == 1:
		binding.Constructor = withParams[0]
	case noArgs != nil:
		binding.Constructor = noArgs
	default:
		candidates := make([]string, 0, len(withParams))
		for _, ctor := range withParams {
			candidates = append(candidates, class.Name+"."+ctor.Name)
		}
		return nil, r.fail(&AmbiguousBindingError{Type: typ.String(), Qualifier: qualifier, Candidates: candidates})
	}
	for _, param := range binding.Constructor.Params {
		binding.Params = append(binding.Params, Request{
			Target:    class.Name,
			Name:      param.Name,
			Type:      param.Type,
			Qualifier: param.Qualifier,
			Wrapper:   param.Wrapper,
			Kind:      facts.ConstructorParam,
		})
	}
	return binding, nil
}

// checkParam rejects parameters that cannot be constructed, unless a factory explicitly provides them.
func (r *resolution) checkParam(binding Binding, param Request) error {
	p := r.pass
	typ := param.Type
	if param.Wrapper == facts.None {
		_, typ = p.universe.WrapperOf(typ, p.opts.wrappers)
	}
	kind := p.universe.KindOf(typ)
	if kind.Constructible() {
		return nil
	}
	if p.index.HasFactory(typ, effectiveQualifier(p.universe, param, typ)) {
		return nil
	}
	return r.fail(&UnsupportedParameterTypeError{
		Binding:   binding.BindingKey(),
		Parameter: param.Name,
		Type:      typ.String(),
		Kind:      kind.String(),
	})
}

// members resolves the field and setter injection points of a constructed class, ancestors first.
func (r *resolution) members(class *facts.ClassDecl) ([]Member, error) {
	p := r.pass
	chain := append([]string{class.Name}, p.lattice.Ancestors(class.Name)...)
	slices.Reverse(chain)
	ctx := p.contextFor(class.Name)
	var out []Member
	for _, name := range chain {
		decl := p.universe.Class(name)
		if decl == nil {
			continue
		}
		for _, point := range decl.Points {
			if point.Kind == facts.ConstructorParam {
				continue
			}
			if err := validateAccess(decl, point); err != nil {
				return nil, err
			}
			ref, err := r.resolve(pointRequest(decl, point), ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, Member{Class: decl.Name, Point: point, Ref: ref})
		}
	}
	return out, nil
}

// fail attaches the active request chain to a resolution error.
func (r *resolution) fail(err error) error {
	chain := slices.Clone(r.chain)
	switch err := err.(type) {
	case *NoBindingFoundError:
		if err.Chain == nil {
			err.Chain = chain
		}
	case *AmbiguousBindingError:
		if err.Chain == nil {
			err.Chain = chain
		}
	case *CyclicDependencyError:
		if err.Chain == nil {
			err.Chain = chain
		}
	case *UnsupportedParameterTypeError:
		if err.Chain == nil {
			err.Chain = chain
		}
	}
	return err
}

// declaredFlags returns the singleton flag and scope declared on the type itself.
func (p *Pass) declaredFlags(typ facts.TypeRef) (bool, string) {
	class := p.universe.Class(typ.Key())
	if class == nil {
		return false, ""
	}
	return class.Singleton, class.Scope
}
