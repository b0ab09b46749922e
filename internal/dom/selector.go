package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Selector computes a stable structural path from the document root to n,
// used as the join key throughout the pipeline. An id attribute terminates
// the walk early (ids are assumed page-unique); otherwise each segment is
// the tag name plus a 1-based :nth-of-type index among same-tag siblings,
// so a structural-neutral change (styles, attributes) keeps the path stable.
// Returns "" for a nil node.
func Selector(n *html.Node) string {
	if n == nil {
		return ""
	}

	var path []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		tag := strings.ToLower(cur.Data)
		if id := attr(cur, "id"); id != "" {
			path = append(path, tag+"#"+id)
			break
		}
		path = append(path, fmt.Sprintf("%s:nth-of-type(%d)", tag, typeIndex(cur)))
	}

	// Segments were collected leaf-first.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return strings.Join(path, " > ")
}

// typeIndex returns the 1-based count of preceding element siblings sharing
// n's tag, including n itself.
func typeIndex(n *html.Node) int {
	idx := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			idx++
		}
	}
	return idx
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
