// Package htmldoc is the parser/serializer collaborator of the bundling
// engine. It wraps golang.org/x/net/html: documents are parsed into mutable
// node trees, outbound references are extracted by inspecting the
// reference-bearing elements (import links, stylesheet links, script tags),
// and merged trees are rendered back to text.
package htmldoc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"webbundle/internal/urlmap"
)

// Kind tags the variant of a reference. The inlining policy dispatches on it:
// imports are always inlined, scripts and stylesheets only when their gate is
// enabled in the configuration.
type Kind int

const (
	KindImport Kind = iota
	KindScript
	KindStylesheet
)

func (k Kind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindScript:
		return "script"
	case KindStylesheet:
		return "stylesheet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reference is one outbound edge from a document. Node is the handle to the
// exact tree position to rewrite or remove during inlining.
type Reference struct {
	Source    string
	Target    string
	Specifier string
	Kind      Kind
	Node      *html.Node
}

// MalformedDocumentError reports a document the parser collaborator rejected.
type MalformedDocumentError struct {
	URL string
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document %q: %v", e.URL, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// SerializationError reports a merged tree the serializer rejected.
type SerializationError struct {
	URL string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing %q: %v", e.URL, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Document is a parsed file identified by its canonical URL. The tree is
// owned exclusively by the engine for the duration of one build and is
// mutated in place during inlining.
type Document struct {
	URL  string
	Root *html.Node
}

// Parse builds a Document from raw content.
func Parse(url string, content []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, &MalformedDocumentError{URL: url, Err: err}
	}
	return &Document{URL: url, Root: root}, nil
}

// Serialize renders the document tree back to text.
func (d *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root); err != nil {
		return nil, &SerializationError{URL: d.URL, Err: err}
	}
	return buf.Bytes(), nil
}

// References extracts the document's outbound references in source order.
// Remote specifiers (absolute or protocol-relative URLs) are not references;
// they pass through bundling untouched. Extraction reflects the tree as it
// currently stands, so it stays correct across in-place mutation.
func (d *Document) References() []Reference {
	var refs []Reference
	walk(d.Root, func(n *html.Node) {
		ref, ok := referenceFrom(d.URL, n)
		if ok {
			refs = append(refs, ref)
		}
	})
	return refs
}

func referenceFrom(sourceURL string, n *html.Node) (Reference, bool) {
	if n.Type != html.ElementNode {
		return Reference{}, false
	}
	var kind Kind
	var attrKey string
	switch n.DataAtom {
	case atom.Link:
		rel, _ := Attr(n, "rel")
		switch {
		case relContains(rel, "import"):
			kind, attrKey = KindImport, "href"
		case relContains(rel, "stylesheet"):
			kind, attrKey = KindStylesheet, "href"
		default:
			return Reference{}, false
		}
	case atom.Script:
		kind, attrKey = KindScript, "src"
	default:
		return Reference{}, false
	}

	spec, ok := Attr(n, attrKey)
	if !ok || spec == "" || urlmap.IsRemote(spec) {
		return Reference{}, false
	}
	return Reference{
		Source:    sourceURL,
		Target:    urlmap.Resolve(sourceURL, spec),
		Specifier: spec,
		Kind:      kind,
		Node:      n,
	}, true
}

// relContains matches a token inside a space-separated rel attribute.
func relContains(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// Attr returns the value of an attribute, if present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr overwrites (or adds) an attribute value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Remove detaches a node from its parent.
func Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWith substitutes a node with the given (detached) nodes, preserving
// position among its siblings.
func ReplaceWith(n *html.Node, replacements []*html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for _, r := range replacements {
		parent.InsertBefore(r, n)
	}
	parent.RemoveChild(n)
}

// ContentNodes detaches and returns the document's head and body children, in
// order. This is the payload spliced into a bundle in place of an import
// link: the wrapper html/head/body elements the parser synthesizes around a
// fragment are discarded.
func ContentNodes(d *Document) []*html.Node {
	var out []*html.Node
	for _, a := range []atom.Atom{atom.Head, atom.Body} {
		el := findElement(d.Root, a)
		if el == nil {
			continue
		}
		var children []*html.Node
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for _, c := range children {
			el.RemoveChild(c)
		}
		out = append(out, children...)
	}
	return out
}

func findElement(root *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && n.DataAtom == a {
			found = n
		}
	})
	return found
}

// ScriptNode builds an inline script element carrying the given source text.
func ScriptNode(js string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: atom.Script, Data: "script"}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: js})
	return n
}

// StyleNode builds an inline style element carrying the given CSS text.
func StyleNode(css string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: atom.Style, Data: "style"}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return n
}
