package goanalysis

import (
	"go/types"

	"github.com/alecthomas/zeroinject/internal/facts"
)

// funcWrapper is the name given to nullary single result function types, eg. func() *Service.
const funcWrapper = "func"

// typeRef converts a Go type into a [facts.TypeRef].
//
// Pointers are erased, so *T and T refer to the same type.
func typeRef(t types.Type) facts.TypeRef {
	switch t := types.Unalias(t).(type) {
	case *types.Pointer:
		return typeRef(t.Elem())

	case *types.Named:
		ref := facts.TypeRef{Name: qualifiedName(t.Origin().Obj())}
		for i := range t.TypeArgs().Len() {
			ref.Args = append(ref.Args, typeRef(t.TypeArgs().At(i)))
		}
		return ref

	case *types.Basic:
		return facts.TypeRef{Name: t.Name()}

	case *types.Slice:
		return facts.TypeRef{Name: typeRef(t.Elem()).String(), Array: true}

	case *types.Array:
		return facts.TypeRef{Name: typeRef(t.Elem()).String(), Array: true}

	case *types.Map:
		return facts.TypeRef{Name: types.TypeString(t, nil), Array: true}

	case *types.Interface:
		if t.Empty() {
			return facts.TypeRef{Name: "any"}
		}

	case *types.Signature:
		if t.Params().Len() == 0 && t.Results().Len() == 1 {
			return facts.TypeRef{Name: funcWrapper, Args: []facts.TypeRef{typeRef(t.Results().At(0).Type())}}
		}
	}
	return facts.TypeRef{Name: types.TypeString(t, nil)}
}

// qualifiedName returns the import path qualified name of a type, eg. "database/sql.DB".
func qualifiedName(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

func deref(t types.Type) types.Type {
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		return ptr.Elem()
	}
	return types.Unalias(t)
}
