// Package dom keeps ordered lists of live nodes in sync with freshly rendered
// ones. Nodes are golang.org/x/net/html trees; a list lives in its parent
// right before an anchor node that marks where it ends.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func Text(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Element builds an element, adopting children in order.
func Element(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
	for _, c := range children {
		detach(c)
		n.AppendChild(c)
	}
	return n
}

// Anchor appends an empty comment to parent to serve as the end marker of a
// list rendered into it.
func Anchor(parent *html.Node) *html.Node {
	a := &html.Node{Type: html.CommentNode}
	parent.AppendChild(a)
	return a
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// moveBefore puts n right before ref in parent, or at the end when ref is nil.
func moveBefore(parent, n, ref *html.Node) {
	if n == ref || (n.Parent == parent && n.NextSibling == ref) {
		return
	}
	detach(n)
	parent.InsertBefore(n, ref)
}

func OuterHTML(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func InnerHTML(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
