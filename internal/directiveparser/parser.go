// Package directiveparser implements a parser for zeroinject's source directives and struct tags.
package directiveparser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix of every directive comment, after the leading "//".
const Prefix = "inject:"

var (
	directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*`},
		{Name: "String", Pattern: `"(\\.|[^"])*"`},
		{Name: "Punct", Pattern: `[:=,]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})
	annotationParser = participle.MustBuild[annotation](
		participle.Lexer(directiveLexer),
		participle.Union[Directive](&DirectiveComponent{}, &DirectiveConstructor{}, &DirectiveProvider{}, &DirectiveModule{}, &DirectiveAccessor{}, &DirectiveSetter{}),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
	)
	tagParser = participle.MustBuild[Tag](
		participle.Lexer(directiveLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
	)
)

type annotation struct {
	Directive Directive `parser:"'inject' ':' @@"`
}

// Directive is a parsed //inject: comment.
//
//sumtype:decl
type Directive interface {
	directive()
	// Validate the directive.
	Validate() error
	String() string
}

// DirectiveComponent marks a type as injectable.
//
//	//inject:component [singleton] [scope=<name>] [qualifier=<name>] [provides]
type DirectiveComponent struct {
	Singleton bool   `parser:"'component' ( @'singleton'"`
	Provides  bool   `parser:"            | @'provides'"`
	Scope     string `parser:"            | 'scope' '=' @Ident"`
	Qualifier string `parser:"            | 'qualifier' '=' @(Ident | String) )*"`
}

func (d *DirectiveComponent) directive() {}
func (d *DirectiveComponent) String() string {
	out := "inject:component"
	out += flags(d.Singleton, d.Scope, d.Qualifier)
	if d.Provides {
		out += " provides"
	}
	return out
}
func (d *DirectiveComponent) Validate() error { return validateLifetime(d.Singleton, d.Scope) }

// DirectiveConstructor marks a function as the constructor to use for the type it returns.
type DirectiveConstructor struct {
	Keyword string `parser:"@'constructor'"`
}

func (d *DirectiveConstructor) directive()      {}
func (d *DirectiveConstructor) String() string  { return "inject:constructor" }
func (d *DirectiveConstructor) Validate() error { return nil }

// DirectiveProvider marks a function or module method as a provider of its result type.
//
// A provider marked "binds" takes exactly one parameter, and binds its result interface to that parameter's
// implementation type.
type DirectiveProvider struct {
	Singleton bool   `parser:"'provider' ( @'singleton'"`
	Binds     bool   `parser:"           | @'binds'"`
	Scope     string `parser:"           | 'scope' '=' @Ident"`
	Qualifier string `parser:"           | 'qualifier' '=' @(Ident | String) )*"`
}

func (d *DirectiveProvider) directive() {}
func (d *DirectiveProvider) String() string {
	out := "inject:provider"
	out += flags(d.Singleton, d.Scope, d.Qualifier)
	if d.Binds {
		out += " binds"
	}
	return out
}
func (d *DirectiveProvider) Validate() error { return validateLifetime(d.Singleton, d.Scope) }

// DirectiveModule marks a type as a module whose methods provide bindings.
type DirectiveModule struct {
	Include []string `parser:"'module' ('include' '=' @Ident (',' @Ident)*)?"`
}

func (d *DirectiveModule) directive() {}
func (d *DirectiveModule) String() string {
	out := "inject:module"
	if len(d.Include) > 0 {
		out += " include=" + strings.Join(d.Include, ",")
	}
	return out
}
func (d *DirectiveModule) Validate() error {
	seen := map[string]bool{}
	for _, include := range d.Include {
		if seen[include] {
			return errors.Errorf("module %s included more than once", include)
		}
		seen[include] = true
	}
	return nil
}

// DirectiveAccessor marks a method as yielding a value that dependents of the receiver can use directly.
type DirectiveAccessor struct {
	Qualifier string `parser:"'accessor' ('qualifier' '=' @(Ident | String))?"`
}

func (d *DirectiveAccessor) directive() {}
func (d *DirectiveAccessor) String() string {
	return "inject:accessor" + flags(false, "", d.Qualifier)
}
func (d *DirectiveAccessor) Validate() error { return nil }

// DirectiveSetter marks a single argument method as a setter injection point.
type DirectiveSetter struct {
	Qualifier string `parser:"'setter' ('qualifier' '=' @(Ident | String))?"`
}

func (d *DirectiveSetter) directive() {}
func (d *DirectiveSetter) String() string {
	return "inject:setter" + flags(false, "", d.Qualifier)
}
func (d *DirectiveSetter) Validate() error { return nil }

// Tag is the parsed value of an `inject:"..."` struct field tag.
type Tag struct {
	Qualifier string `parser:"('qualifier' '=' @(Ident | String))?"`
}

func flags(singleton bool, scope, qualifier string) string {
	out := ""
	if singleton {
		out += " singleton"
	}
	if scope != "" {
		out += " scope=" + scope
	}
	if qualifier != "" {
		out += " qualifier=" + quote(qualifier)
	}
	return out
}

func quote(s string) string {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && (unicode.IsDigit(r) || r == '.')) {
			continue
		}
		return strconv.Quote(s)
	}
	return s
}

func validateLifetime(singleton bool, scope string) error {
	if singleton && scope != "" {
		return errors.Errorf("singleton and scope=%s are mutually exclusive", scope)
	}
	return nil
}

// Parse an inject compiler directive, without the leading "//".
func Parse(text string) (Directive, error) {
	if text == "" {
		return nil, errors.Errorf("empty directive")
	}
	result, err := annotationParser.ParseString("", text)
	if err != nil {
		return nil, errors.Errorf("failed to parse directive: %w", err)
	}
	if err := result.Directive.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	return result.Directive, nil
}

// ParseTag parses the value of an `inject:"..."` struct tag.
func ParseTag(value string) (*Tag, error) {
	if strings.TrimSpace(value) == "" {
		return &Tag{}, nil
	}
	tag, err := tagParser.ParseString("", value)
	if err != nil {
		return nil, errors.Errorf("failed to parse inject tag %q: %w", value, err)
	}
	return tag, nil
}
