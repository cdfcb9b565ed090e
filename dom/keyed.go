package dom

import (
	"slices"
	"strconv"

	"golang.org/x/net/html"
)

// KeyFunc names a node's identity across renders.
type KeyFunc func(n *html.Node) string

// AttrKey keys nodes by the named attribute, falling back to their structural
// hash when it is missing.
func AttrKey(name string) KeyFunc {
	return func(n *html.Node) string {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == name {
				return a.Val
			}
		}
		return "#" + strconv.FormatUint(Hash(n), 16)
	}
}

// UnionKeyed is Union with matching by key instead of by scanning. A current
// node is reused for the next node with the same key when both are text,
// which overwrites its data, or when they are structurally equal. A key that
// matches a changed element replaces the old node. Duplicate keys pair up in
// order. Matching is linear in the list sizes.
func UnionKeyed(anchor *html.Node, current, next []*html.Node, key KeyFunc) []*html.Node {
	parent := anchor.Parent
	result := slices.Clone(next)
	if result == nil {
		result = []*html.Node{}
	}

	if current == nil {
		for _, n := range result {
			moveBefore(parent, n, anchor)
		}
		return result
	}

	byKey := make(map[string][]int, len(current))
	for j, c := range current {
		k := key(c)
		byKey[k] = append(byKey[k], j)
	}

	remaining := slices.Clone(current)
	for i, n := range result {
		k := key(n)
		if slots := byKey[k]; len(slots) > 0 {
			j := slots[0]
			byKey[k] = slots[1:]

			c := remaining[j]
			switch {
			case c.Type == html.TextNode && n.Type == html.TextNode:
				c.Data = n.Data
				fallthrough
			case Equal(c, n):
				remaining[j] = nil
				if c != n {
					detach(n)
				}
				result[i] = c
				n = c
			}
		}

		moveBefore(parent, n, insertionPoint(anchor, current, result, i))
	}

	for _, c := range remaining {
		if c != nil {
			detach(c)
		}
	}
	return result
}
