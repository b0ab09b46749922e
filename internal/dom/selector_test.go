package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// findNode returns the nth (1-based) element with the given tag, in document order.
func findNode(t *testing.T, doc *html.Node, tag string, nth int) *html.Node {
	t.Helper()
	var found *html.Node
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			count++
			if count == nth {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil {
		t.Fatalf("no %q element #%d in document", tag, nth)
	}
	return found
}

func TestSelectorNilNode(t *testing.T) {
	if got := Selector(nil); got != "" {
		t.Errorf("Selector(nil) = %q, want empty", got)
	}
}

func TestSelectorPositionalPath(t *testing.T) {
	doc := parseDoc(t, `<html><body><div><p>one</p><p>two</p></div></body></html>`)
	p2 := findNode(t, doc, "p", 2)

	want := "html:nth-of-type(1) > body:nth-of-type(1) > div:nth-of-type(1) > p:nth-of-type(2)"
	if got := Selector(p2); got != want {
		t.Errorf("Selector = %q, want %q", got, want)
	}
}

func TestSelectorIDTerminatesWalk(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="content"><span><p>x</p></span></div></body></html>`)
	p := findNode(t, doc, "p", 1)

	want := "div#content > span:nth-of-type(1) > p:nth-of-type(1)"
	if got := Selector(p); got != want {
		t.Errorf("Selector = %q, want %q", got, want)
	}
}

func TestSelectorCountsOnlySameTagSiblings(t *testing.T) {
	// The h2 is the first of its tag even though a p precedes it.
	doc := parseDoc(t, `<html><body><div><p>a</p><h2>b</h2></div></body></html>`)
	h2 := findNode(t, doc, "h2", 1)

	if got := Selector(h2); !strings.HasSuffix(got, "h2:nth-of-type(1)") {
		t.Errorf("Selector = %q, want suffix h2:nth-of-type(1)", got)
	}
}

func TestSelectorStableAcrossAttributeChange(t *testing.T) {
	before := parseDoc(t, `<html><body><div><p>a</p><p>b</p></div></body></html>`)
	after := parseDoc(t, `<html><body><div><p style="color:red">a</p><p class="x">b</p></div></body></html>`)

	if s1, s2 := Selector(findNode(t, before, "p", 2)), Selector(findNode(t, after, "p", 2)); s1 != s2 {
		t.Errorf("selector changed across structural-neutral edit: %q vs %q", s1, s2)
	}
}
