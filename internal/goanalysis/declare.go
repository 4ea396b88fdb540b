package goanalysis

import (
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/errors"
	"golang.org/x/tools/go/packages"

	"github.com/alecthomas/zeroinject/internal/directiveparser"
	"github.com/alecthomas/zeroinject/internal/facts"
)

type analyser struct {
	fset    *token.FileSet
	logger  *slog.Logger
	dest    string
	classes map[string]*facts.ClassDecl
	named   map[string]*types.Named
	modules map[string]*facts.Module
}

func newAnalyser(dest string, logger *slog.Logger) *analyser {
	return &analyser{
		fset:    token.NewFileSet(),
		logger:  logger,
		dest:    dest,
		classes: map[string]*facts.ClassDecl{},
		named:   map[string]*types.Named{},
		modules: map[string]*facts.Module{},
	}
}

func (a *analyser) analyse(pkgs []*packages.Package) (*facts.Universe, error) {
	// Types first, so that functions and methods in any package can refer to them.
	for _, pkg := range pkgs {
		if err := a.declareTypes(pkg); err != nil {
			return nil, err
		}
	}
	for _, pkg := range pkgs {
		if err := a.declareFuncs(pkg); err != nil {
			return nil, err
		}
	}
	a.computeSupers()

	universe := &facts.Universe{Wrappers: Wrappers}
	for _, name := range slices.Sorted(maps.Keys(a.classes)) {
		universe.Classes = append(universe.Classes, a.classes[name])
	}
	for _, name := range slices.Sorted(maps.Keys(a.modules)) {
		universe.Modules = append(universe.Modules, a.modules[name])
	}
	return universe.Index(), nil
}

// Parse a directive from a comment. Will return (nil, nil) if a directive is not found.
func parseDirective(doc *ast.CommentGroup) (directiveparser.Directive, error) {
	if doc == nil {
		return nil, nil
	}
	for _, comment := range doc.List {
		if strings.HasPrefix(comment.Text, "//"+directiveparser.Prefix) {
			return directiveparser.Parse(comment.Text[2:])
		}
	}
	return nil, nil
}

func (a *analyser) declareTypes(pkg *packages.Package) error {
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				typeSpec := spec.(*ast.TypeSpec) //nolint:forcetypeassert
				doc := typeSpec.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				directive, err := parseDirective(doc)
				if err != nil {
					return errors.Errorf("%s: %w", a.fset.Position(typeSpec.Pos()), err)
				}
				if err := a.declareType(pkg, file, typeSpec, directive); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *analyser) declareType(pkg *packages.Package, file *ast.File, spec *ast.TypeSpec, directive directiveparser.Directive) error {
	pos := a.fset.Position(spec.Pos())
	obj, ok := pkg.TypesInfo.Defs[spec.Name].(*types.TypeName)
	if !ok || obj.IsAlias() {
		return nil
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil
	}
	if named.TypeParams().Len() > 0 {
		if directive != nil {
			return errors.Errorf("%s: %s: generic types cannot be annotated", pos, directive)
		}
		return nil
	}
	name := qualifiedName(obj)
	class := &facts.ClassDecl{Position: pos, Name: name}
	switch underlying := named.Underlying().(type) {
	case *types.Struct:
		class.Kind = facts.Class
		if err := a.declareFields(pkg, class, named, underlying); err != nil {
			return err
		}
	case *types.Interface:
		class.Kind = facts.Interface
	default:
		if directive != nil {
			return errors.Errorf("%s: %s: %s must be a struct or an interface", pos, directive, name)
		}
		return nil
	}
	a.classes[name] = class
	a.named[name] = named

	switch directive := directive.(type) {
	case nil:
	case *directiveparser.DirectiveComponent:
		class.Singleton = directive.Singleton
		class.Scope = directive.Scope
		class.Qualifier = directive.Qualifier
		class.Provides = directive.Provides
		if class.Provides && class.Kind != facts.Class {
			return errors.Errorf("%s: %s: only structs can provide an implementation", pos, directive)
		}
	case *directiveparser.DirectiveModule:
		if class.Kind != facts.Class {
			return errors.Errorf("%s: %s: module %s must be a struct", pos, directive, name)
		}
		module := a.module(name, pos, true)
		for _, include := range directive.Include {
			resolved, err := resolveTypeName(pkg, file, include)
			if err != nil {
				return errors.Errorf("%s: %w", pos, err)
			}
			module.Includes = append(module.Includes, resolved)
		}
	default:
		return errors.Errorf("%s: %s: directive is not valid on a type", pos, directive)
	}
	a.logger.Debug("Declared type", "type", name, "kind", class.Kind.String())
	return nil
}

func (a *analyser) declareFields(pkg *packages.Package, class *facts.ClassDecl, named *types.Named, st *types.Struct) error {
	for i := range st.NumFields() {
		field := st.Field(i)
		if field.Embedded() {
			if class.Parent == "" {
				if parent, ok := deref(field.Type()).(*types.Named); ok {
					if _, ok := parent.Underlying().(*types.Struct); ok {
						class.Parent = qualifiedName(parent.Origin().Obj())
					}
				}
			}
			continue
		}
		value, ok := reflect.StructTag(st.Tag(i)).Lookup("inject")
		if !ok {
			continue
		}
		pos := a.fset.Position(field.Pos())
		tag, err := directiveparser.ParseTag(value)
		if err != nil {
			return errors.Errorf("%s: %w", pos, err)
		}
		point := facts.InjectionPoint{
			Position:  pos,
			Name:      field.Name(),
			Kind:      facts.Field,
			Type:      typeRef(field.Type()),
			Qualifier: tag.Qualifier,
			Private:   !a.accessible(pkg.Types, field.Exported()),
		}
		if point.Private {
			upper := capitalise(field.Name())
			if fn := a.method(named, upper); fn != nil && fn.Signature().Params().Len() == 0 && fn.Signature().Results().Len() == 1 {
				point.Getter = upper
			}
			if fn := a.method(named, "Set"+upper); fn != nil && fn.Signature().Params().Len() == 1 && fn.Signature().Results().Len() == 0 {
				point.Setter = "Set" + upper
			}
		}
		class.Points = append(class.Points, point)
	}
	return nil
}

func (a *analyser) declareFuncs(pkg *packages.Package) error {
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			directive, err := parseDirective(fn.Doc)
			if err != nil {
				return errors.Errorf("%s: %w", a.fset.Position(fn.Pos()), err)
			}
			funcObj, ok := pkg.TypesInfo.Defs[fn.Name].(*types.Func)
			if !ok {
				continue
			}
			if fn.Recv != nil {
				err = a.declareMethod(pkg, funcObj, directive)
			} else {
				err = a.declareFunc(pkg, funcObj, directive)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *analyser) declareFunc(pkg *packages.Package, fn *types.Func, directive directiveparser.Directive) error {
	pos := a.fset.Position(fn.Pos())
	sig := fn.Signature()
	switch directive := directive.(type) {
	case nil:
		// Conventional constructors are recognised without a directive.
		result, err := resultType(sig)
		if err != nil || result == nil {
			return nil //nolint:nilerr
		}
		named, ok := deref(result).(*types.Named)
		if !ok || fn.Name() != "New"+named.Obj().Name() || named.Obj().Pkg() != fn.Pkg() {
			return nil
		}
		if class, ok := a.classes[qualifiedName(named.Origin().Obj())]; !ok || class.Kind != facts.Class {
			return nil
		}
		return a.declareConstructor(pkg, fn, false)

	case *directiveparser.DirectiveConstructor:
		return a.declareConstructor(pkg, fn, true)

	case *directiveparser.DirectiveProvider:
		method, err := a.factoryMethod(pkg, fn, directive)
		if err != nil {
			return err
		}
		method.Static = true
		module := a.module(pkg.PkgPath, pos, false)
		module.Methods = append(module.Methods, method)
		return nil

	default:
		return errors.Errorf("%s: %s: directive is not valid on a function", pos, directive)
	}
}

func (a *analyser) declareMethod(pkg *packages.Package, fn *types.Func, directive directiveparser.Directive) error {
	if directive == nil {
		return nil
	}
	pos := a.fset.Position(fn.Pos())
	sig := fn.Signature()
	recv, ok := deref(sig.Recv().Type()).(*types.Named)
	if !ok {
		return errors.Errorf("%s: %s: invalid receiver", pos, directive)
	}
	recvName := qualifiedName(recv.Origin().Obj())
	switch directive := directive.(type) {
	case *directiveparser.DirectiveProvider:
		module, ok := a.modules[recvName]
		if !ok || !module.Object {
			return errors.Errorf("%s: %s: provider method %s must be declared on an //inject:module type", pos, directive, fn.Name())
		}
		method, err := a.factoryMethod(pkg, fn, directive)
		if err != nil {
			return err
		}
		module.Methods = append(module.Methods, method)
		return nil

	case *directiveparser.DirectiveAccessor:
		class, err := a.receiverClass(pos, recvName, directive)
		if err != nil {
			return err
		}
		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return errors.Errorf("%s: %s: accessor %s must take no parameters and return a single value", pos, directive, fn.Name())
		}
		class.Accessors = append(class.Accessors, facts.Accessor{
			Name:      fn.Name(),
			Type:      typeRef(sig.Results().At(0).Type()),
			Qualifier: directive.Qualifier,
		})
		return nil

	case *directiveparser.DirectiveSetter:
		class, err := a.receiverClass(pos, recvName, directive)
		if err != nil {
			return err
		}
		if sig.Params().Len() != 1 || sig.Results().Len() != 0 {
			return errors.Errorf("%s: %s: setter %s must take exactly one parameter and return nothing", pos, directive, fn.Name())
		}
		point := facts.InjectionPoint{
			Position:  pos,
			Name:      fn.Name(),
			Kind:      facts.Setter,
			Type:      typeRef(sig.Params().At(0).Type()),
			Qualifier: directive.Qualifier,
			Private:   !a.accessible(pkg.Types, fn.Exported()),
		}
		if !point.Private {
			point.Setter = fn.Name()
		}
		class.Points = append(class.Points, point)
		return nil

	default:
		return errors.Errorf("%s: %s: directive is not valid on a method", pos, directive)
	}
}

func (a *analyser) receiverClass(pos token.Position, name string, directive directiveparser.Directive) (*facts.ClassDecl, error) {
	class, ok := a.classes[name]
	if !ok || class.Kind != facts.Class {
		return nil, errors.Errorf("%s: %s: receiver %s must be a struct", pos, directive, name)
	}
	return class, nil
}

func (a *analyser) declareConstructor(pkg *packages.Package, fn *types.Func, marked bool) error {
	pos := a.fset.Position(fn.Pos())
	result, err := resultType(fn.Signature())
	if err != nil {
		return errors.Errorf("%s: constructor %w", pos, err)
	}
	named, ok := deref(result).(*types.Named)
	if !ok {
		return errors.Errorf("%s: constructor %s must return a struct", pos, fn.Name())
	}
	class, ok := a.classes[qualifiedName(named.Origin().Obj())]
	if !ok || class.Kind != facts.Class {
		return errors.Errorf("%s: constructor %s must return a struct", pos, fn.Name())
	}
	if !a.accessible(pkg.Types, fn.Exported()) {
		if marked {
			return errors.Errorf("%s: constructor %s is not accessible from %s", pos, fn.Name(), a.dest)
		}
		return nil
	}
	class.Constructors = append(class.Constructors, facts.Constructor{
		Position: pos,
		Name:     fn.Name(),
		Params:   params(fn.Signature()),
		Inject:   marked,
	})
	return nil
}

func (a *analyser) factoryMethod(pkg *packages.Package, fn *types.Func, directive *directiveparser.DirectiveProvider) (facts.FactoryMethod, error) {
	pos := a.fset.Position(fn.Pos())
	result, err := resultType(fn.Signature())
	if err != nil {
		return facts.FactoryMethod{}, errors.Errorf("%s: provider %w", pos, err)
	}
	method := facts.FactoryMethod{
		Position:  pos,
		Name:      fn.Name(),
		Qualifier: directive.Qualifier,
		Singleton: directive.Singleton,
		Scope:     directive.Scope,
		Abstract:  directive.Binds,
		Public:    a.accessible(pkg.Types, fn.Exported()),
		Params:    params(fn.Signature()),
	}
	if result != nil {
		method.Produces = typeRef(result)
	}
	return method, nil
}

func (a *analyser) module(name string, pos token.Position, object bool) *facts.Module {
	module, ok := a.modules[name]
	if !ok {
		module = &facts.Module{Position: pos, Name: name, Object: object}
		a.modules[name] = module
	}
	return module
}

// computeSupers records, for every declared type, the declared non-empty interfaces it implements.
func (a *analyser) computeSupers() {
	var interfaces []string
	for _, name := range slices.Sorted(maps.Keys(a.named)) {
		if iface, ok := a.named[name].Underlying().(*types.Interface); ok && iface.NumMethods() > 0 {
			interfaces = append(interfaces, name)
		}
	}
	for name, class := range a.classes {
		var subject types.Type = a.named[name]
		if class.Kind == facts.Class {
			subject = types.NewPointer(subject)
		}
		for _, iface := range interfaces {
			if iface == name {
				continue
			}
			if types.Implements(subject, a.named[iface].Underlying().(*types.Interface)) { //nolint:forcetypeassert
				class.Supers = append(class.Supers, iface)
			}
		}
	}
}

// accessible returns true if an identifier declared in pkg is assignable from the destination package.
func (a *analyser) accessible(pkg *types.Package, exported bool) bool {
	return exported || pkg.Path() == a.dest
}

func (a *analyser) method(named *types.Named, name string) *types.Func {
	obj, _, _ := types.LookupFieldOrMethod(types.NewPointer(named), true, named.Obj().Pkg(), name)
	fn, ok := obj.(*types.Func)
	if !ok || !a.accessible(fn.Pkg(), fn.Exported()) {
		return nil
	}
	return fn
}

// resultType returns T for a signature returning T or (T, error), or nil if it returns nothing.
func resultType(sig *types.Signature) (types.Type, error) {
	results := sig.Results()
	switch {
	case results.Len() == 0:
		return nil, nil
	case results.Len() == 1:
		return results.At(0).Type(), nil
	case results.Len() == 2 && isError(results.At(1).Type()):
		return results.At(0).Type(), nil
	}
	return nil, errors.Errorf("must return (T) or (T, error), not %s", results)
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func params(sig *types.Signature) []facts.Param {
	out := make([]facts.Param, 0, sig.Params().Len())
	for i := range sig.Params().Len() {
		param := sig.Params().At(i)
		name := param.Name()
		if name == "" || name == "_" {
			name = "p" + strconv.Itoa(i)
		}
		out = append(out, facts.Param{Name: name, Type: typeRef(param.Type())})
	}
	return out
}

// resolveTypeName resolves a possibly package qualified type name as written in file.
func resolveTypeName(pkg *packages.Package, file *ast.File, name string) (string, error) {
	alias, typeName, ok := strings.Cut(name, ".")
	if !ok {
		return pkg.PkgPath + "." + name, nil
	}
	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return "", errors.WithStack(err)
		}
		local := ""
		switch {
		case spec.Name != nil:
			local = spec.Name.Name
		case pkg.Imports[importPath] != nil:
			local = pkg.Imports[importPath].Name
		}
		if local == alias {
			return importPath + "." + typeName, nil
		}
	}
	return "", errors.Errorf("unknown package %q in %s", alias, name)
}

func capitalise(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
