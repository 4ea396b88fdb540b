// Package facts contains the closed-world declarations that the resolver consumes.
//
// Facts are produced by an introspection layer (see [github.com/alecthomas/zeroinject/internal/goanalysis])
// and are host-agnostic: a "class" is anything that can be constructed and can declare injection points.
package facts

import (
	"go/token"
	"slices"
	"strings"
)

// WrapperKind is the indirection requested around an injected value.
type WrapperKind int

const (
	// None requests the value directly.
	None WrapperKind = iota
	// DeferredProvider builds a new value on every call.
	DeferredProvider
	// Lazy builds the value once, on first use.
	Lazy
	// WeakRef holds a non-owning reference to the value.
	WeakRef
)

func (w WrapperKind) String() string {
	switch w {
	case None:
		return "none"
	case DeferredProvider:
		return "provider"
	case Lazy:
		return "lazy"
	case WeakRef:
		return "weak"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (w WrapperKind) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// DefaultWrappers maps the canonical wrapper type names to their kind.
var DefaultWrappers = map[string]WrapperKind{
	"Provider": DeferredProvider,
	"Lazy":     Lazy,
	"WeakRef":  WeakRef,
}

// Kind classifies a type for resolution purposes.
type Kind int

const (
	Unknown Kind = iota
	Class
	Interface
	Abstract
	Primitive
	Array
	Wildcard
)

func (k Kind) String() string {
	switch k {
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Abstract:
		return "abstract"
	case Primitive:
		return "primitive"
	case Array:
		return "array"
	case Wildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Constructible returns true if a value of this kind may be a binding parameter.
func (k Kind) Constructible() bool {
	switch k {
	case Primitive, Array, Wildcard:
		return false
	default:
		return true
	}
}

var primitives = map[string]bool{
	"bool": true, "byte": true, "rune": true, "string": true, "char": true, "short": true, "long": true,
	"float": true, "double": true, "int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true, "boolean": true,
}

// TypeRef references a (possibly generic) type by name.
type TypeRef struct {
	// Name is the fully qualified name of the type, without type arguments.
	Name string `json:"name"`
	// Args are the type arguments of a generic instantiation, or the element type of an array.
	Args []TypeRef `json:"args,omitempty"`
	// Array is true for array, slice and map shapes.
	Array bool `json:"array,omitempty"`
}

// T is a convenience constructor for a [TypeRef].
func T(name string, args ...TypeRef) TypeRef {
	return TypeRef{Name: name, Args: args}
}

// IsZero returns true if the reference is empty.
func (t TypeRef) IsZero() bool { return t.Name == "" && !t.Array }

// Key returns the erased name of the type, used to look up class declarations.
func (t TypeRef) Key() string { return t.Name }

// Simple returns the unqualified name of the type.
//
// eg. "github.com/example/app.FileConfig" would become "FileConfig".
func (t TypeRef) Simple() string {
	name := t.Name
	if i := strings.LastIndexAny(name, "/"); i != -1 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i != -1 {
		name = name[i+1:]
	}
	return name
}

func (t TypeRef) String() string {
	w := &strings.Builder{}
	if t.Array {
		w.WriteString("[]")
	}
	w.WriteString(t.Name)
	if len(t.Args) > 0 {
		w.WriteByte('[')
		for i, arg := range t.Args {
			if i > 0 {
				w.WriteByte(',')
			}
			w.WriteString(arg.String())
		}
		w.WriteByte(']')
	}
	return w.String()
}

// Equal returns true if both references name the same instantiated type.
func (t TypeRef) Equal(o TypeRef) bool {
	return t.Name == o.Name && t.Array == o.Array && slices.EqualFunc(t.Args, o.Args, TypeRef.Equal)
}

// PointKind is how an injection point receives its value.
type PointKind int

const (
	Field PointKind = iota
	Setter
	ConstructorParam
)

func (p PointKind) String() string {
	switch p {
	case Field:
		return "field"
	case Setter:
		return "setter"
	case ConstructorParam:
		return "constructor"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PointKind) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// InjectionPoint is a member of a class that requests a resolved value.
type InjectionPoint struct {
	Position  token.Position
	Name      string
	Kind      PointKind
	Type      TypeRef
	Qualifier string
	// Wrapper is set when the introspection layer already unwrapped the declared type.
	Wrapper WrapperKind
	// Private is true if the member is not directly assignable by generated code.
	Private bool
	// Getter and Setter name the accessor pair used to reach a private member.
	Getter string
	Setter string
}

// Param is a parameter of a constructor or factory method.
type Param struct {
	Name      string
	Type      TypeRef
	Qualifier string
	Wrapper   WrapperKind
}

// Constructor of a class.
type Constructor struct {
	Position token.Position
	Name     string
	Params   []Param
	// Inject is true if the constructor is explicitly marked for injection.
	Inject bool
}

// Accessor is a getter on a class that yields a value without constructing it.
type Accessor struct {
	Name      string
	Type      TypeRef
	Qualifier string
}

// ClassDecl declares a constructible type, an interface, or an abstract type.
type ClassDecl struct {
	Position token.Position
	Name     string
	Kind     Kind
	// Parent is the single superclass, if any.
	Parent string
	// Supers are the directly implemented interfaces (or extended interfaces for an interface).
	Supers    []string
	Qualifier string
	Singleton bool
	// Scope is the named scope of the type, empty for the root scope.
	Scope string
	// Provides marks the class as an explicit implementation candidate for its supertypes.
	Provides     bool
	Constructors []Constructor
	Points       []InjectionPoint
	Accessors    []Accessor
}

// Type returns a reference to the declared class.
func (c *ClassDecl) Type() TypeRef { return TypeRef{Name: c.Name} }

// FactoryMethod is a provider method declared on a module.
type FactoryMethod struct {
	Position  token.Position
	Name      string
	Produces  TypeRef
	Qualifier string
	Singleton bool
	Scope     string
	Static    bool
	// Abstract methods bind an interface to the implementation given as their single parameter.
	Abstract bool
	Public   bool
	Params   []Param
}

// Module groups factory methods and references other modules.
type Module struct {
	Position token.Position
	Name     string
	// Object is true if the module is a singleton object whose methods may be called without an instance.
	Object   bool
	Includes []string
	Methods  []FactoryMethod
}

// Universe is the closed-world snapshot of declarations for one compilation pass.
type Universe struct {
	Classes []*ClassDecl
	Modules []*Module
	// Roots are the modules to aggregate bindings from. All modules are used if empty.
	Roots []string
	// Wrappers maps wrapper type names to their kind, in addition to [DefaultWrappers].
	Wrappers map[string]WrapperKind

	classes map[string]*ClassDecl
	modules map[string]*Module
}

// Index the universe for lookups. Must be called after the universe is fully populated.
func (u *Universe) Index() *Universe {
	u.classes = make(map[string]*ClassDecl, len(u.Classes))
	for _, class := range u.Classes {
		u.classes[class.Name] = class
	}
	u.modules = make(map[string]*Module, len(u.Modules))
	for _, module := range u.Modules {
		u.modules[module.Name] = module
	}
	return u
}

// Class returns the declaration for name, or nil.
func (u *Universe) Class(name string) *ClassDecl {
	if u.classes == nil {
		u.Index()
	}
	return u.classes[name]
}

// Module returns the module declaration for name, or nil.
func (u *Universe) Module(name string) *Module {
	if u.modules == nil {
		u.Index()
	}
	return u.modules[name]
}

// KindOf classifies a type reference.
func (u *Universe) KindOf(t TypeRef) Kind {
	switch {
	case t.Array:
		return Array
	case t.Name == "?" || t.Name == "any":
		return Wildcard
	case primitives[t.Name]:
		return Primitive
	}
	if class := u.Class(t.Key()); class != nil {
		return class.Kind
	}
	return Unknown
}

// WrapperOf returns the wrapper kind of t and the wrapped type, if t has the shape of a wrapper.
func (u *Universe) WrapperOf(t TypeRef, extra map[string]WrapperKind) (WrapperKind, TypeRef) {
	if len(t.Args) != 1 || t.Array {
		return None, t
	}
	for _, wrappers := range []map[string]WrapperKind{extra, u.Wrappers, DefaultWrappers} {
		if kind, ok := wrappers[t.Name]; ok {
			return kind, t.Args[0]
		}
	}
	return None, t
}
