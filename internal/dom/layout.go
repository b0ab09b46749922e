package dom

import (
	"context"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/browseable/pageadapt/internal/page"
	"golang.org/x/net/html"
)

// Candidate section-like containers, checked by tag name.
var containerTags = map[string]bool{
	"main":    true,
	"section": true,
	"article": true,
	"div":     true,
}

// Tags collected into sections.
var contentTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "img": true, "video": true, "ul": true, "ol": true, "a": true,
}

var (
	heroRe    = regexp.MustCompile(`(?i)hero|banner`)
	footerRe  = regexp.MustCompile(`(?i)footer`)
	navRe     = regexp.MustCompile(`(?i)nav`)
	sidebarRe = regexp.MustCompile(`(?i)sidebar`)
	mainRe    = regexp.MustCompile(`(?i)main`)
	stepRe    = regexp.MustCompile(`(?i)step|card|panel`)
)

// sectionRole infers the semantic role of a container. An explicit role
// attribute wins; otherwise class-name keywords are checked in a fixed
// precedence; "section" is the default.
func sectionRole(n *html.Node) string {
	if role := attr(n, "role"); role != "" {
		return role
	}
	class := attr(n, "class")
	switch {
	case heroRe.MatchString(class):
		return "hero"
	case footerRe.MatchString(class):
		return "footer"
	case navRe.MatchString(class):
		return "navigation"
	case sidebarRe.MatchString(class):
		return "sidebar"
	case mainRe.MatchString(class):
		return "main"
	case stepRe.MatchString(class):
		return "content-step"
	}
	return "section"
}

// ExtractLayout parses the page HTML and groups classified content into
// sections. Candidate containers are visited in document order and item
// order within a container matches document order; collection stops at
// nested candidates so content is attributed to its nearest container.
// Image inline-encoding fetches run concurrently and are joined before the
// layout is returned.
func (e *Extractor) ExtractLayout(ctx context.Context, r io.Reader, pageURL string) (*page.Layout, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	layout := &page.Layout{
		Title: findTitle(doc),
		URL:   pageURL,
	}

	var fills []fillFunc
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && containerTags[strings.ToLower(n.Data)] {
			items, sectionFills := e.collectItems(n)
			if len(items) > 0 {
				layout.Sections = append(layout.Sections, page.Section{
					Role:     sectionRole(n),
					Selector: Selector(n),
					Items:    items,
				})
				fills = append(fills, sectionFills...)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	e.runFills(ctx, fills)
	return layout, nil
}

// collectItems gathers content items under container, stopping descent at
// nested candidate containers.
func (e *Extractor) collectItems(container *html.Node) ([]page.ContentItem, []fillFunc) {
	var items []page.ContentItem
	var fills []fillFunc

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			tag := strings.ToLower(c.Data)
			if containerTags[tag] {
				continue
			}
			if contentTags[tag] {
				item, fill := e.extractElement(c)
				if usable(item) {
					items = append(items, item)
					if fill != nil {
						fills = append(fills, fill)
					}
				}
				continue
			}
			walk(c)
		}
	}
	walk(container)
	return items, fills
}

// usable reports whether an item carries content worth sending downstream.
func usable(item page.ContentItem) bool {
	if item.Selector == "" {
		return false
	}
	if item.Text != "" || len(item.Items) > 0 {
		return true
	}
	return item.Media != nil && item.Media.URL != ""
}

// runFills executes pending inline-encoding fetches with bounded concurrency
// and waits for all of them.
func (e *Extractor) runFills(ctx context.Context, fills []fillFunc) {
	if len(fills) == 0 {
		return
	}
	limit := e.MaxConcurrentFetch
	if limit <= 0 {
		limit = 4
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, fill := range fills {
		wg.Add(1)
		sem <- struct{}{}
		go func(f fillFunc) {
			defer wg.Done()
			defer func() { <-sem }()
			f(ctx)
		}(fill)
	}
	wg.Wait()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
