package depgraph

import (
	"log/slog"
	"maps"

	"github.com/alecthomas/errors"

	"github.com/alecthomas/zeroinject/internal/facts"
)

type passOptions struct {
	logger   *slog.Logger
	wrappers map[string]facts.WrapperKind
}

type Option func(*passOptions) error

// WithLogger sets the logger used for resolution traces and warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *passOptions) error {
		if logger == nil {
			return errors.Errorf("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithWrappers registers additional wrapper type names, eg. "github.com/acme/di.Lazy".
func WithWrappers(wrappers map[string]facts.WrapperKind) Option {
	return func(o *passOptions) error {
		if o.wrappers == nil {
			o.wrappers = map[string]facts.WrapperKind{}
		}
		maps.Copy(o.wrappers, wrappers)
		return nil
	}
}

func WithOptions(options ...Option) Option {
	return func(o *passOptions) error {
		for _, opt := range options {
			err := opt(o)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}
}

// SharedNode is a singleton or scoped subtree, emitted once per pass.
type SharedNode struct {
	Key  ScopeKey
	Node *Node
	Uses int
}

// Result of a resolution pass.
type Result struct {
	// Targets in dependency order: ancestors before descendants.
	Targets  []*TargetUnit
	Shared   []SharedNode
	Warnings []RedundantSingletonWarning

	sharedIdents map[*Node]string
}

// SharedIdent returns the identifier of a node within the shared subtrees.
func (r *Result) SharedIdent(node *Node) string { return r.sharedIdents[node] }

// Target returns the target unit for the named class, or nil.
func (r *Result) Target(name string) *TargetUnit {
	for _, target := range r.Targets {
		if target.Type() == name {
			return target
		}
	}
	return nil
}

// Pass is the state of one compilation pass.
//
// All mutable state (binding index, registries, name scopes, target arena) is owned by the Pass and is
// cleared by [Pass.Reset]. A Pass is not safe for concurrent use.
type Pass struct {
	universe *facts.Universe
	opts     *passOptions
	logger   *slog.Logger

	lattice  *Lattice
	index    *Index
	registry *Registry
	names    *NameUniquer
	orderer  *Orderer
	arena    *Arena
	warnings []RedundantSingletonWarning
}

// NewPass creates a resolution pass over universe.
func NewPass(universe *facts.Universe, options ...Option) (*Pass, error) {
	opts := &passOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	universe.Index()
	p := &Pass{
		universe: universe,
		opts:     opts,
		logger:   opts.logger,
		registry: NewRegistry(),
		names:    NewNameUniquer(),
		orderer:  NewOrderer(),
	}
	p.Reset()
	return p, nil
}

// Reset clears all pass-scoped state so the Pass can be run again.
func (p *Pass) Reset() {
	p.lattice = NewLattice(p.universe)
	p.index = nil
	p.registry.Reset()
	p.names.Reset()
	p.orderer.Reset()
	p.arena = NewArena()
	p.warnings = nil
}

// Run the pass: resolve every target, then order and name the result.
//
// The first fatal error aborts the pass and no partial result is returned.
func (p *Pass) Run() (*Result, error) {
	p.Reset()
	if err := p.prepare(); err != nil {
		return nil, err
	}
	p.logger.Debug("Aggregated modules", "modules", p.index.Modules())
	if err := p.buildTargets(); err != nil {
		return nil, errors.WithStack(err)
	}
	units := p.arena.Units()
	p.orderer.Accumulate(units)
	for _, unit := range units {
		p.orderer.Sort(unit)
		p.names.Assign(unit)
	}
	p.warnings = p.registry.Redundant()
	for _, warning := range p.warnings {
		p.logger.Warn(warning.String(), "key", warning.Key.String())
	}
	result := &Result{Targets: units, Warnings: p.warnings}
	for _, key := range p.registry.Keys() {
		node, _ := p.registry.Lookup(key)
		result.Shared = append(result.Shared, SharedNode{Key: key, Node: node, Uses: p.registry.Uses(key)})
	}
	result.sharedIdents = p.names.AssignShared(result.Shared)
	return result, nil
}

// Registry returns the pass's singleton and scope registry.
func (p *Pass) Registry() *Registry { return p.registry }

// Lattice returns the pass's type lattice.
func (p *Pass) Lattice() *Lattice { return p.lattice }

func (p *Pass) prepare() error {
	if p.index != nil {
		return nil
	}
	index, err := NewIndex(p.universe, p.lattice)
	if err != nil {
		return errors.WithStack(err)
	}
	p.index = index
	return nil
}
