package dom

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/browseable/pageadapt/internal/page"
)

type stubFetcher struct {
	data map[string][]byte
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestExtractElementHeading(t *testing.T) {
	doc := parseDoc(t, `<html><body><h3> Welcome  Home </h3></body></html>`)
	e := &Extractor{}

	item, fill := e.extractElement(findNode(t, doc, "h3", 1))
	if fill != nil {
		t.Error("heading should not schedule a fill")
	}
	if item.Kind != page.KindHeading {
		t.Fatalf("kind = %q, want heading", item.Kind)
	}
	if item.Level != 3 {
		t.Errorf("level = %d, want 3", item.Level)
	}
	if item.Text != "Welcome Home" {
		t.Errorf("text = %q, want normalized %q", item.Text, "Welcome Home")
	}
}

func TestExtractElementParagraphAndLink(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Some text.</p><a href="/about">About us</a></body></html>`)
	e := &Extractor{}

	p, _ := e.extractElement(findNode(t, doc, "p", 1))
	if p.Kind != page.KindParagraph || p.Text != "Some text." {
		t.Errorf("paragraph = %+v", p)
	}

	a, _ := e.extractElement(findNode(t, doc, "a", 1))
	if a.Kind != page.KindLink || a.Text != "About us" || a.Href != "/about" {
		t.Errorf("link = %+v", a)
	}
}

func TestExtractElementList(t *testing.T) {
	doc := parseDoc(t, `<html><body><ul><li>one</li><li>two</li><li> </li></ul></body></html>`)
	e := &Extractor{}

	item, _ := e.extractElement(findNode(t, doc, "ul", 1))
	if item.Kind != page.KindList {
		t.Fatalf("kind = %q, want list", item.Kind)
	}
	want := []string{"one", "two"}
	if len(item.Items) != len(want) {
		t.Fatalf("items = %v, want %v", item.Items, want)
	}
	for i := range want {
		if item.Items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, item.Items[i], want[i])
		}
	}
}

func TestExtractElementUnknownPreviewCapped(t *testing.T) {
	long := strings.Repeat("x", 500)
	doc := parseDoc(t, `<html><body><blockquote>`+long+`</blockquote></body></html>`)
	e := &Extractor{}

	item, _ := e.extractElement(findNode(t, doc, "blockquote", 1))
	if item.Kind != page.KindUnknown {
		t.Fatalf("kind = %q, want unknown", item.Kind)
	}
	if len(item.Text) != unknownPreviewCap {
		t.Errorf("preview length = %d, want %d", len(item.Text), unknownPreviewCap)
	}
}

func TestExtractElementImageFetchSuccess(t *testing.T) {
	imgData := []byte{0x89, 0x50, 0x4e, 0x47}
	e := &Extractor{Fetcher: &stubFetcher{data: map[string][]byte{
		"https://example.com/pic.png": imgData,
	}}}
	doc := parseDoc(t, `<html><body><img src="https://example.com/pic.png" alt="A chart"></body></html>`)

	item, fill := e.extractElement(findNode(t, doc, "img", 1))
	if item.Kind != page.KindImage {
		t.Fatalf("kind = %q, want image", item.Kind)
	}
	if fill == nil {
		t.Fatal("expected a fill func for http image")
	}
	fill(context.Background())

	if !item.Media.InlineEncodingPresent {
		t.Error("expected inline encoding present after successful fetch")
	}
	if item.Media.InlineEncoding != base64.StdEncoding.EncodeToString(imgData) {
		t.Error("inline encoding does not match fetched bytes")
	}
	if item.Media.Alt != "A chart" {
		t.Errorf("alt = %q", item.Media.Alt)
	}
}

func TestExtractElementImageFetchFailure(t *testing.T) {
	e := &Extractor{Fetcher: &stubFetcher{err: errors.New("cors denied")}}
	doc := parseDoc(t, `<html><body><img src="https://example.com/pic.png"></body></html>`)

	item, fill := e.extractElement(findNode(t, doc, "img", 1))
	if fill == nil {
		t.Fatal("expected a fill func")
	}
	fill(context.Background())

	if item.Media.InlineEncodingPresent {
		t.Error("inline encoding must stay absent after a failed fetch")
	}
	if item.Media.Alt != "" {
		t.Errorf("alt = %q, want empty", item.Media.Alt)
	}
}

func TestExtractElementImageDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("tiny"))
	doc := parseDoc(t, `<html><body><img src="data:image/png;base64,`+payload+`"></body></html>`)
	e := &Extractor{}

	item, fill := e.extractElement(findNode(t, doc, "img", 1))
	if fill != nil {
		t.Error("data URI should not schedule a fetch")
	}
	if !item.Media.InlineEncodingPresent || item.Media.InlineEncoding != payload {
		t.Errorf("media = %+v, want inline payload decoded in place", item.Media)
	}
}

func TestExtractElementVideoCaptionPriority(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{
			name: "aria label wins",
			html: `<video src="/v/tour.mp4" aria-label="Site tour" title="ignored"></video>`,
			want: "Site tour",
		},
		{
			name: "title attribute",
			html: `<video src="/v/tour.mp4" title="Product demo"></video>`,
			want: "Product demo",
		},
		{
			name: "description track",
			html: `<video src="/v/tour.mp4"><track kind="descriptions" label="Guided walkthrough"></video>`,
			want: "Guided walkthrough",
		},
		{
			name: "filename fallback",
			html: `<video src="/media/intro_to-signup.mp4"></video>`,
			want: "intro to signup",
		},
		{
			name: "source child supplies url",
			html: `<video><source src="/media/demo.webm"></video>`,
			want: "demo",
		},
	}

	e := &Extractor{}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := parseDoc(t, `<html><body>`+c.html+`</body></html>`)
			item, _ := e.extractElement(findNode(t, doc, "video", 1))
			if item.Kind != page.KindVideo {
				t.Fatalf("kind = %q, want video", item.Kind)
			}
			if item.Media.Alt != c.want {
				t.Errorf("caption = %q, want %q", item.Media.Alt, c.want)
			}
		})
	}
}
