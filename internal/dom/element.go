package dom

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/browseable/pageadapt/internal/page"
	"golang.org/x/net/html"
)

// unknownPreviewCap bounds the text preview kept for unclassified elements.
const unknownPreviewCap = 200

// Extractor classifies DOM nodes into content items. A nil Fetcher disables
// inline image encoding entirely.
type Extractor struct {
	Fetcher ImageFetcher
	Log     *slog.Logger
	// MaxConcurrentFetch bounds concurrent image fetches per pass (default 4).
	MaxConcurrentFetch int
}

// fillFunc completes an item asynchronously (image inline encoding). All fill
// funcs of one pass run concurrently and are joined before sections finalize.
type fillFunc func(ctx context.Context)

// extractElement classifies one element node by tag name. The second return
// is non-nil when the item needs a network fetch to complete; it never
// reports an error, failures leave InlineEncodingPresent false.
func (e *Extractor) extractElement(n *html.Node) (page.ContentItem, fillFunc) {
	item := page.ContentItem{Selector: Selector(n)}
	if item.Selector == "" {
		item.Kind = page.KindUnknown
		return item, nil
	}

	tag := strings.ToLower(n.Data)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		item.Kind = page.KindHeading
		item.Level = int(tag[1] - '0')
		item.Text = textContent(n)
	case "p":
		item.Kind = page.KindParagraph
		item.Text = textContent(n)
	case "img":
		item.Kind = page.KindImage
		media := &page.MediaRef{
			URL: attr(n, "src"),
			Alt: attr(n, "alt"),
		}
		item.Media = media
		return item, e.imageFill(media)
	case "video":
		item.Kind = page.KindVideo
		src := attr(n, "src")
		if src == "" {
			if source := findChild(n, "source"); source != nil {
				src = attr(source, "src")
			}
		}
		item.Media = &page.MediaRef{
			URL: src,
			Alt: videoCaption(n, src),
		}
	case "ul", "ol":
		item.Kind = page.KindList
		item.Items = listItems(n)
	case "a":
		item.Kind = page.KindLink
		item.Text = textContent(n)
		item.Href = attr(n, "href")
	default:
		item.Kind = page.KindUnknown
		item.Text = truncateRunes(textContent(n), unknownPreviewCap)
	}
	return item, nil
}

// imageFill returns the deferred inline-encoding step for an image, or nil
// when nothing needs fetching. Data URIs are decoded in place without a
// network round trip.
func (e *Extractor) imageFill(media *page.MediaRef) fillFunc {
	src := media.URL
	if src == "" {
		return nil
	}

	if strings.HasPrefix(src, "data:") {
		if idx := strings.Index(src, ";base64,"); idx >= 0 {
			media.InlineEncoding = src[idx+len(";base64,"):]
			media.InlineEncodingPresent = media.InlineEncoding != ""
		}
		return nil
	}

	if e.Fetcher == nil || (!strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://")) {
		return nil
	}

	return func(ctx context.Context) {
		data, err := e.Fetcher.Fetch(ctx, src)
		if err != nil {
			if e.Log != nil {
				e.Log.Warn("image fetch failed", "src", src, "error", err)
			}
			return
		}
		media.InlineEncoding = base64.StdEncoding.EncodeToString(data)
		media.InlineEncodingPresent = true
	}
}

// videoCaption derives a caption: accessible label, then title attribute,
// then a description track label, then the filename stem of the source URL.
func videoCaption(n *html.Node, src string) string {
	if label := attr(n, "aria-label"); label != "" {
		return label
	}
	if title := attr(n, "title"); title != "" {
		return title
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "track" {
			continue
		}
		kind := strings.ToLower(attr(c, "kind"))
		if kind != "descriptions" && kind != "description" {
			continue
		}
		if label := attr(c, "label"); label != "" {
			return label
		}
	}
	return filenameStem(src)
}

func filenameStem(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.NewReplacer("-", " ", "_", " ").Replace(base)
}

func listItems(n *html.Node) []string {
	var items []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "li" {
			if t := textContent(c); t != "" {
				items = append(items, t)
			}
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return items
}

func findChild(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// textContent collapses the text nodes under n into a single
// whitespace-normalized string.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(c *html.Node) {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			extract(gc)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
