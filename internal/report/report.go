// Package report converts a resolution result into a host-neutral document that an emitter can consume.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/alecthomas/errors"

	"github.com/alecthomas/zeroinject/internal/depgraph"
	"github.com/alecthomas/zeroinject/internal/facts"
)

// Format of a rendered [Document].
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// Document is the hand-off form of a [depgraph.Result].
type Document struct {
	Targets  []Target `json:"targets"`
	Shared   []Shared `json:"shared,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Target is a resolved target unit.
type Target struct {
	Type string `json:"type"`
	// Parent is the direct superclass unit, if any.
	Parent string `json:"parent,omitempty"`
	// InjectParent is the nearest ancestor whose injection logic runs first, if any.
	InjectParent string  `json:"injectParent,omitempty"`
	Points       []Point `json:"points"`
}

// Point is an injection point in emission order.
type Point struct {
	Rank   int             `json:"rank"`
	Name   string          `json:"name"`
	Kind   facts.PointKind `json:"kind"`
	Setter string          `json:"setter,omitempty"`
	Weight int             `json:"weight"`
	Node   *Node           `json:"node"`
}

// Node is a resolved value.
//
// A node owned by the registry is only described by its Shared key outside of [Document.Shared].
type Node struct {
	Ident     string            `json:"ident,omitempty"`
	Type      string            `json:"type"`
	Qualifier string            `json:"qualifier,omitempty"`
	Wrapper   facts.WrapperKind `json:"wrapper,omitzero"`
	Shared    string            `json:"shared,omitempty"`
	Binding   string            `json:"binding,omitempty"`
	// Assign is the injection point receiving the value, for members of a constructed class.
	Assign   *Assignment `json:"assign,omitempty"`
	Children []*Node     `json:"children,omitempty"`
	Members  []*Node     `json:"members,omitempty"`
}

// Assignment is a field or setter injection point of a constructed class.
type Assignment struct {
	Class  string          `json:"class"`
	Name   string          `json:"name"`
	Kind   facts.PointKind `json:"kind"`
	Setter string          `json:"setter,omitempty"`
}

// Shared is a singleton or scoped subtree, emitted once.
type Shared struct {
	Key  string `json:"key"`
	Uses int    `json:"uses"`
	Node *Node  `json:"node"`
}

// Build the document for a resolution result.
func Build(result *depgraph.Result) *Document {
	doc := &Document{Targets: []Target{}}
	for _, unit := range result.Targets {
		target := Target{Type: unit.Type(), Points: []Point{}}
		if parent := unit.ParentUnit(); parent != nil {
			target.Parent = parent.Type()
		}
		if parent := unit.InjectParentUnit(); parent != nil {
			target.InjectParent = parent.Type()
		}
		for _, point := range unit.Points {
			target.Points = append(target.Points, Point{
				Rank:   point.Rank,
				Name:   point.Point.Name,
				Kind:   point.Point.Kind,
				Setter: point.Point.Setter,
				Weight: point.Weight,
				Node:   convertRef(point.Ref, unit.Ident),
			})
		}
		doc.Targets = append(doc.Targets, target)
	}
	for _, shared := range result.Shared {
		doc.Shared = append(doc.Shared, Shared{
			Key:  shared.Key.String(),
			Uses: shared.Uses,
			Node: convertNode(shared.Node, result.SharedIdent),
		})
	}
	for _, warning := range result.Warnings {
		doc.Warnings = append(doc.Warnings, warning.String())
	}
	return doc
}

func convertRef(ref depgraph.Ref, ident func(*depgraph.Node) string) *Node {
	if !ref.IsShared() {
		node := convertNode(ref.Node, ident)
		node.Wrapper = ref.Wrapper
		return node
	}
	return &Node{
		Ident:     ident(ref.Node),
		Type:      ref.Node.Type.String(),
		Qualifier: ref.Node.Qualifier,
		Wrapper:   ref.Wrapper,
		Shared:    ref.Shared.String(),
	}
}

func convertNode(n *depgraph.Node, ident func(*depgraph.Node) string) *Node {
	node := &Node{
		Ident:     ident(n),
		Type:      n.Type.String(),
		Qualifier: n.Qualifier,
		Binding:   n.Binding.BindingKey(),
	}
	for _, child := range n.Children {
		node.Children = append(node.Children, convertRef(child, ident))
	}
	for _, member := range n.Members {
		converted := convertRef(member.Ref, ident)
		converted.Assign = &Assignment{
			Class:  member.Class,
			Name:   member.Point.Name,
			Kind:   member.Point.Kind,
			Setter: member.Point.Setter,
		}
		node.Members = append(node.Members, converted)
	}
	return node
}

// Render doc to w in the given format.
func Render(w io.Writer, format Format, doc *Document) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return errors.Errorf("failed to encode report: %w", err)
		}
		return nil
	case Text:
		_, err := io.WriteString(w, doc.String())
		return errors.WithStack(err)
	default:
		return errors.Errorf("unsupported report format %q", format)
	}
}

// Check returns an error if the file name in fsys does not contain doc rendered in format.
func Check(fsys fs.FS, name string, format Format, doc *Document) error {
	existing, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("%s does not exist", name)
	} else if err != nil {
		return errors.Errorf("failed to read %s: %w", name, err)
	}
	buf := &bytes.Buffer{}
	if err := Render(buf, format, doc); err != nil {
		return err
	}
	if !bytes.Equal(existing, buf.Bytes()) {
		return errors.Errorf("%s is out of date", name)
	}
	return nil
}

// String renders the document as an indented text tree.
func (d *Document) String() string {
	w := &strings.Builder{}
	for _, target := range d.Targets {
		fmt.Fprintf(w, "target %s", target.Type)
		if target.Parent != "" {
			fmt.Fprintf(w, " parent=%s", target.Parent)
		}
		if target.InjectParent != "" {
			fmt.Fprintf(w, " inject=%s", target.InjectParent)
		}
		w.WriteString("\n")
		for _, point := range target.Points {
			fmt.Fprintf(w, "  %d %s %s -> %s\n", point.Rank, point.Kind, point.Name, point.Node)
			writeTree(w, point.Node, 2)
		}
	}
	for _, shared := range d.Shared {
		fmt.Fprintf(w, "shared %s uses=%d\n", shared.Key, shared.Uses)
		fmt.Fprintf(w, "  %s\n", shared.Node)
		writeTree(w, shared.Node, 2)
	}
	for _, warning := range d.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return w.String()
}

func writeTree(w *strings.Builder, node *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, child := range node.Children {
		fmt.Fprintf(w, "%s  %s\n", indent, child)
		writeTree(w, child, depth+1)
	}
	for _, member := range node.Members {
		fmt.Fprintf(w, "%s  %s <- %s\n", indent, member.Assign, member)
		writeTree(w, member, depth+1)
	}
}

func (a *Assignment) String() string {
	out := "." + a.Name
	if a.Setter != "" {
		out += " setter=" + a.Setter
	}
	return out
}

func (n *Node) String() string {
	out := ""
	if n.Ident != "" {
		out = n.Ident + ": "
	}
	if n.Wrapper != facts.None {
		out += n.Wrapper.String() + " "
	}
	out += n.Type
	if n.Qualifier != "" {
		out += fmt.Sprintf("(qualifier=%q)", n.Qualifier)
	}
	if n.Shared != "" {
		return out + " = shared " + n.Shared
	}
	return out + " = " + n.Binding
}
