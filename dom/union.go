package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// Union rewrites the live list current, which sits right before anchor, so the
// DOM shows next instead, and returns the list to pass as current next time.
//
// Matching is positional and unkeyed. For every next node the remaining
// current nodes are scanned in order: any text node is reused with its data
// overwritten, otherwise a structurally equal node is reused. Reused nodes
// take the place of their fresh twin in the returned list and are moved only
// when their position changed. Current nodes left unmatched are removed.
//
// A nil current means nothing was rendered yet and every next node is
// inserted. The anchor must be attached to a parent. Comparisons are
// O(len(current)*len(next)).
func Union(anchor *html.Node, current, next []*html.Node) []*html.Node {
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

	remaining := slices.Clone(current)
	for i, n := range result {
		adopted, at := adopt(remaining, n)
		if adopted != nil {
			remaining[at] = nil
			if adopted != n {
				detach(n)
			}
			result[i] = adopted
			if i == at {
				continue
			}
			n = adopted
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

func adopt(remaining []*html.Node, n *html.Node) (*html.Node, int) {
	for j, c := range remaining {
		if c == nil {
			continue
		}
		if c.Type == html.TextNode && n.Type == html.TextNode {
			c.Data = n.Data
			return c, j
		}
		if Equal(c, n) {
			return c, j
		}
	}
	return nil, -1
}

// insertionPoint is the node result[i] belongs right before: after
// result[i-1], or where the old list started for the first position.
func insertionPoint(anchor *html.Node, current, result []*html.Node, i int) *html.Node {
	if i > 0 {
		return result[i-1].NextSibling
	}
	if len(current) > 0 {
		return current[0]
	}
	return anchor
}
