package dom

import (
	"github.com/delaneyj/tendril/reactive"
	"golang.org/x/net/html"
)

// Fragment collects the nodes one render produces before they are reconciled
// into the live tree.
type Fragment struct {
	root *html.Node
}

func NewFragment() *Fragment {
	return &Fragment{root: &html.Node{Type: html.DocumentNode}}
}

func (f *Fragment) Append(nodes ...*html.Node) {
	for _, n := range nodes {
		detach(n)
		f.root.AppendChild(n)
	}
}

func (f *Fragment) Text(data string) *html.Node {
	n := Text(data)
	f.root.AppendChild(n)
	return n
}

func (f *Fragment) Element(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := Element(tag, attrs, children...)
	f.root.AppendChild(n)
	return n
}

func (f *Fragment) Len() int {
	count := 0
	for c := f.root.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// Nodes empties the fragment and returns what it held, detached and in order.
func (f *Fragment) Nodes() []*html.Node {
	nodes := make([]*html.Node, 0, f.Len())
	for c := f.root.FirstChild; c != nil; c = f.root.FirstChild {
		f.root.RemoveChild(c)
		nodes = append(nodes, c)
	}
	return nodes
}

// Render keeps the nodes view produces in place right before anchor. view runs
// inside an effect, so it reruns whenever a signal it read changes, and each
// result is reconciled against the previous one with Union. A view that fails
// leaves the DOM as it was. Disposing removes the rendered nodes.
func Render(rt *reactive.Runtime, anchor *html.Node, view func(f *Fragment) error) (dispose func()) {
	return render(rt, anchor, view, Union)
}

// RenderKeyed is Render reconciling with UnionKeyed.
func RenderKeyed(rt *reactive.Runtime, anchor *html.Node, key KeyFunc, view func(f *Fragment) error) (dispose func()) {
	return render(rt, anchor, view, func(anchor *html.Node, current, next []*html.Node) []*html.Node {
		return UnionKeyed(anchor, current, next, key)
	})
}

type reconciler func(anchor *html.Node, current, next []*html.Node) []*html.Node

func render(rt *reactive.Runtime, anchor *html.Node, view func(f *Fragment) error, reconcile reconciler) func() {
	return rt.Scope(func(func()) error {
		var rendered []*html.Node
		rt.OnCleanup(func() {
			for _, n := range rendered {
				detach(n)
			}
			rendered = nil
		})

		reactive.Effect(rt, func() error {
			f := NewFragment()
			if err := view(f); err != nil {
				return err
			}
			rendered = reconcile(anchor, rendered, f.Nodes())
			return nil
		})
		return nil
	})
}
