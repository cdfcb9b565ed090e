package dom

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
)

// Equal reports whether a and b are structurally the same tree: node type,
// namespace, tag or text, attributes in any order and children in order.
func Equal(a, b *html.Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Type != b.Type || a.Namespace != b.Namespace || a.Data != b.Data {
		return false
	}
	if !equalAttrs(a.Attr, b.Attr) {
		return false
	}

	ca, cb := a.FirstChild, b.FirstChild
	for ; ca != nil && cb != nil; ca, cb = ca.NextSibling, cb.NextSibling {
		if !Equal(ca, cb) {
			return false
		}
	}
	return ca == nil && cb == nil
}

func equalAttrs(a, b []html.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}

// Hash digests the same structure Equal compares, so equal trees hash the
// same.
func Hash(n *html.Node) uint64 {
	d := xxhash.New()
	hashNode(d, n)
	return d.Sum64()
}

func hashNode(d *xxhash.Digest, n *html.Node) {
	if n == nil {
		return
	}
	d.Write([]byte{byte(n.Type)})
	d.WriteString(n.Namespace)
	d.Write([]byte{0})
	d.WriteString(n.Data)
	d.Write([]byte{0})

	attrs := slices.Clone(n.Attr)
	slices.SortFunc(attrs, func(x, y html.Attribute) int {
		if c := strings.Compare(x.Namespace, y.Namespace); c != 0 {
			return c
		}
		if c := strings.Compare(x.Key, y.Key); c != 0 {
			return c
		}
		return strings.Compare(x.Val, y.Val)
	})
	for _, a := range attrs {
		d.WriteString(a.Namespace)
		d.Write([]byte{0})
		d.WriteString(a.Key)
		d.Write([]byte{0})
		d.WriteString(a.Val)
		d.Write([]byte{0})
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.Write([]byte{1})
		hashNode(d, c)
	}
	d.Write([]byte{2})
}
