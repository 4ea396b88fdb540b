package depgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/errors"

	"github.com/alecthomas/zeroinject/internal/facts"
)

func TestAggregateModulesVisitsEachOnce(t *testing.T) {
	app := module("AppModule")
	app.Includes = []string{"DBModule", "LogModule"}
	db := module("DBModule", factory("OpenDB", "DB"))
	db.Includes = []string{"AppModule", "LogModule"}
	universe := &facts.Universe{
		Modules: []*facts.Module{db, app, module("LogModule"), module("UnusedModule", factory("Unused", "Unused"))},
		Roots:   []string{"AppModule"},
	}
	index, err := NewIndex(universe, NewLattice(universe))
	assert.NoError(t, err)
	assert.Equal(t, []string{"AppModule", "DBModule", "LogModule"}, index.Modules())
	assert.True(t, index.HasFactory(facts.T("DB"), ""))
	assert.False(t, index.HasFactory(facts.T("Unused"), ""))
}

func TestAggregateModulesWithoutRoots(t *testing.T) {
	universe := &facts.Universe{Modules: []*facts.Module{module("B"), module("A")}}
	index, err := NewIndex(universe, NewLattice(universe))
	assert.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, index.Modules())
}

func TestAggregateUnknownModule(t *testing.T) {
	app := module("AppModule")
	app.Includes = []string{"Missing"}
	universe := &facts.Universe{Modules: []*facts.Module{app}, Roots: []string{"AppModule"}}
	_, err := NewIndex(universe, NewLattice(universe))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "module AppModule includes unknown module Missing")

	universe = &facts.Universe{Roots: []string{"Missing"}}
	_, err = NewIndex(universe, NewLattice(universe))
	assert.Contains(t, err.Error(), "unknown root module Missing")
}

func TestValidateFactory(t *testing.T) {
	tests := []struct {
		name   string
		object bool
		method facts.FactoryMethod
		reason string
	}{
		{name: "Valid", method: factory("NewDB", "DB")},
		{name: "NoResult", method: facts.FactoryMethod{Name: "Init", Static: true, Public: true}, reason: "provider must produce a value"},
		{name: "Private", method: facts.FactoryMethod{Name: "newDB", Produces: facts.T("DB"), Static: true}, reason: "provider must be public"},
		{name: "InstanceOnStaticModule", method: facts.FactoryMethod{Name: "NewDB", Produces: facts.T("DB"), Public: true}, reason: "provider on a non-object module must be static"},
		{name: "InstanceOnObjectModule", object: true, method: facts.FactoryMethod{Name: "NewDB", Produces: facts.T("DB"), Public: true}},
		{name: "BareWrapperName", method: factory("NewLazy", "Lazy")},
		{name: "AbstractArity", method: facts.FactoryMethod{Name: "Bind", Produces: facts.T("Store"), Abstract: true, Static: true, Public: true}, reason: "abstract binding must take exactly one parameter"},
		{name: "AbstractNotAssignable", method: facts.FactoryMethod{Name: "Bind", Produces: facts.T("Store"), Abstract: true, Static: true, Public: true, Params: []facts.Param{param("impl", "DB")}}, reason: "DB is not assignable to Store"},
		{name: "AbstractValid", method: facts.FactoryMethod{Name: "Bind", Produces: facts.T("Store"), Abstract: true, Static: true, Public: true, Params: []facts.Param{param("impl", "SQLStore")}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mod := module("Module", test.method)
			mod.Object = test.object
			universe := &facts.Universe{
				Classes: []*facts.ClassDecl{class("DB"), iface("Store"), provides("SQLStore", "Store")},
				Modules: []*facts.Module{mod},
			}
			_, err := NewIndex(universe, NewLattice(universe))
			if test.reason == "" {
				assert.NoError(t, err)
				return
			}
			var target *InvalidBindingSignatureError
			assert.True(t, errors.As(err, &target))
			assert.Equal(t, "Module."+test.method.Name, target.Binding)
			assert.Equal(t, test.reason, target.Reason)
		})
	}

	produced := factory("NewDB", "DB")
	produced.Produces = facts.T("Lazy", facts.T("DB"))
	universe := &facts.Universe{Modules: []*facts.Module{module("Module", produced)}}
	_, err := NewIndex(universe, NewLattice(universe))
	var target *InvalidBindingSignatureError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "provider cannot produce a lazy wrapper", target.Reason)
}

func TestImplementations(t *testing.T) {
	qualified := provides("ReplicaStore", "Store")
	qualified.Qualifier = "replica"
	universe := &facts.Universe{
		Classes: []*facts.ClassDecl{iface("Store"), provides("SQLStore", "Store"), qualified, provides("Unrelated")},
		Modules: []*facts.Module{module("StoreModule", factory("NewMemStore", "Store"))},
	}
	index, err := NewIndex(universe, NewLattice(universe))
	assert.NoError(t, err)
	keys := func(candidates []*Candidate) []string {
		out := []string{}
		for _, candidate := range candidates {
			out = append(out, candidate.Key())
		}
		return out
	}
	assert.Equal(t, []string{"SQLStore", "StoreModule.NewMemStore"}, keys(index.Implementations(facts.T("Store"), "")))
	assert.Equal(t, []string{"ReplicaStore"}, keys(index.Implementations(facts.T("Store"), "replica")))
	assert.Equal(t, []string{"StoreModule.NewMemStore"}, keys(index.Factory(facts.T("Store"), "")))
}
